package playlist

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"

	"github.com/meshwatch/meshwatch/internal/model"
)

var log = logging.Logger("playlist")

const extension = ".yaml"

// snapshot is the on-disk shape of a playlist save: the playing index (nil
// if nothing is playing) and the flat video list.
type snapshot struct {
	Playing  *int            `yaml:"playing"`
	Playlist []snapshotVideo `yaml:"playlist"`
}

type snapshotVideo struct {
	File string `yaml:"file,omitempty"`
	URL  string `yaml:"url,omitempty"`
}

func toSnapshotVideo(v model.Video) snapshotVideo {
	if v.IsURL() {
		return snapshotVideo{URL: v.URL()}
	}
	return snapshotVideo{File: v.Name()}
}

func (v snapshotVideo) toVideo() model.Video {
	if v.URL != "" {
		return model.NewURLVideo(v.URL)
	}
	return model.NewFileVideo(v.File)
}

// Store persists playlist snapshots to <dataDir>/playlist/<room>/<timestamp>.yaml.
// Writes across the whole process are serialized by a capacity-1 semaphore
// so concurrent saves (e.g. from different rooms) never interleave file
// contents; the original design uses one global permit rather than one per
// room, and this keeps that property.
type Store struct {
	dataDir   string
	permit    *semaphore.Weighted
	timestamp string // fixed for the lifetime of the process, like a session id
}

// NewStore returns a Store rooted at dataDir, stamping the session
// timestamp once at construction.
func NewStore(dataDir string) *Store {
	return &Store{
		dataDir:   dataDir,
		permit:    semaphore.NewWeighted(1),
		timestamp: time.Now().Format("2006-01-02_150405"),
	}
}

func (s *Store) roomDir(room string) string {
	return filepath.Join(s.dataDir, "playlist", room)
}

// Save serializes the handler's current playlist to a new timestamped file
// under the room's directory. Save errors are logged and swallowed by the
// caller per the configuration-and-persistence error taxonomy: a failed
// save must never take down the event loop.
func (s *Store) Save(ctx context.Context, room string, h *Handler) error {
	if err := s.permit.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.permit.Release(1)

	snap := snapshot{Playing: nil, Playlist: make([]snapshotVideo, len(h.playlist))}
	if h.playing != nil {
		idx := *h.playing
		snap.Playing = &idx
	}
	for i, v := range h.playlist {
		snap.Playlist[i] = toSnapshotVideo(v)
	}

	dir := s.roomDir(room)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, s.timestamp+extension)
	return os.WriteFile(path, data, 0o644)
}

// Restore loads the most recently saved playlist for room, trying
// filenames from lexicographically greatest to least and skipping any
// that fail to parse, until one succeeds or none remain.
func (s *Store) Restore(room string) (model.Playlist, int, bool) {
	dir := s.roomDir(room)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, false
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), extension) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warnw("failed to read playlist snapshot", "file", name, "error", err)
			continue
		}
		var snap snapshot
		if err := yaml.Unmarshal(data, &snap); err != nil {
			log.Warnw("failed to parse playlist snapshot", "file", name, "error", err)
			continue
		}
		pl := make(model.Playlist, len(snap.Playlist))
		for i, v := range snap.Playlist {
			pl[i] = v.toVideo()
		}
		playing := -1
		if snap.Playing != nil {
			playing = *snap.Playing
		}
		return pl, playing, true
	}
	return nil, 0, false
}
