package core

import "testing"

func TestUserListInsertIsNoOpForExistingName(t *testing.T) {
	l := NewUserList("lobby")
	l.Insert(UserStatus{Name: "alice", Ready: false})

	inserted := l.Insert(UserStatus{Name: "alice", Ready: true})

	if inserted {
		t.Fatal("expected Insert to report no-op for an existing name")
	}
	got, ok := l.Get(0)
	if !ok || got.Ready {
		t.Fatalf("expected the original entry to survive unchanged, got %+v", got)
	}
}

func TestUserListReplaceOverwritesAndReturnsDisplaced(t *testing.T) {
	l := NewUserList("lobby")
	l.Insert(UserStatus{Name: "alice", Ready: false})

	old, existed := l.Replace(UserStatus{Name: "alice", Ready: true})

	if !existed {
		t.Fatal("expected Replace to report an existing entry")
	}
	if old.Ready {
		t.Fatal("expected the displaced entry to be the original, unready one")
	}
	got, _ := l.Get(0)
	if !got.Ready {
		t.Fatal("expected the roster to hold the replacement")
	}
}

func TestUserListOrderedByName(t *testing.T) {
	l := NewUserList("lobby")
	l.Insert(UserStatus{Name: "carol"})
	l.Insert(UserStatus{Name: "alice"})
	l.Insert(UserStatus{Name: "bob"})

	names := make([]string, l.Len())
	for i := range names {
		u, _ := l.Get(i)
		names[i] = u.Name
	}
	want := []string{"alice", "bob", "carol"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("expected name-ordered roster %v, got %v", want, names)
		}
	}
}

func TestUserListContainsAndIsEmpty(t *testing.T) {
	l := NewUserList("lobby")
	if !l.IsEmpty() {
		t.Fatal("expected a fresh roster to be empty")
	}
	l.Insert(UserStatus{Name: "alice"})
	if l.IsEmpty() {
		t.Fatal("expected the roster to be non-empty after an insert")
	}
	if !l.Contains("alice") || l.Contains("bob") {
		t.Fatal("expected Contains to reflect exactly the inserted names")
	}
}
