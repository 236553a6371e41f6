package core

import "sort"

// UserStatus is one user's readiness in a room, ordered by name only.
type UserStatus struct {
	Name  string
	Ready bool
}

// UserList is a name-ordered, name-unique roster, mirroring a set keyed
// by username: inserting a name that already exists is a no-op unless the
// caller uses Replace.
type UserList struct {
	room string
	list []UserStatus
}

// NewUserList returns an empty roster for room.
func NewUserList(room string) *UserList {
	return &UserList{room: room}
}

func (l *UserList) RoomName() string { return l.room }
func (l *UserList) Len() int         { return len(l.list) }
func (l *UserList) IsEmpty() bool    { return len(l.list) == 0 }

// Get returns the index-th user in name order.
func (l *UserList) Get(index int) (UserStatus, bool) {
	if index < 0 || index >= len(l.list) {
		return UserStatus{}, false
	}
	return l.list[index], true
}

func (l *UserList) Contains(name string) bool {
	_, ok := l.find(name)
	return ok
}

func (l *UserList) find(name string) (int, bool) {
	i := sort.Search(len(l.list), func(i int) bool { return l.list[i].Name >= name })
	if i < len(l.list) && l.list[i].Name == name {
		return i, true
	}
	return i, false
}

// Insert adds user if no entry with that name exists yet. Reports whether
// it was actually inserted.
func (l *UserList) Insert(user UserStatus) bool {
	i, exists := l.find(user.Name)
	if exists {
		return false
	}
	l.list = append(l.list, UserStatus{})
	copy(l.list[i+1:], l.list[i:])
	l.list[i] = user
	return true
}

// Replace inserts user, overwriting any existing entry with the same
// name, and returns the entry it displaced.
func (l *UserList) Replace(user UserStatus) (UserStatus, bool) {
	i, exists := l.find(user.Name)
	if exists {
		old := l.list[i]
		l.list[i] = user
		return old, true
	}
	l.list = append(l.list, UserStatus{})
	copy(l.list[i+1:], l.list[i:])
	l.list[i] = user
	return UserStatus{}, false
}

// Iter returns the roster in name order. The caller must not mutate it.
func (l *UserList) Iter() []UserStatus { return l.list }
