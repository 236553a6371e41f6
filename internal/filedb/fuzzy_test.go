package filedb

import (
	"testing"
	"time"

	"github.com/meshwatch/meshwatch/internal/model"
)

func TestFuzzySearchEmptyStoreReturnsNoResults(t *testing.T) {
	store := model.NewFileStore(nil)
	results := Search("anything", store).Wait()
	if len(results) != 0 {
		t.Fatalf("expected no results from an empty store, got %d", len(results))
	}
}

func TestFuzzySearchMatchesSubsequence(t *testing.T) {
	store := model.NewFileStore([]model.FileEntry{
		{Name: "big_buck_bunny.mkv"},
		{Name: "totally_unrelated.txt"},
	})

	results := Search("bbb", store).Wait()
	if len(results) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(results))
	}
	if results[0].Entry.Name != "big_buck_bunny.mkv" {
		t.Fatalf("expected big_buck_bunny.mkv to match, got %q", results[0].Entry.Name)
	}
}

func TestFuzzySearchRanksTighterMatchesHigher(t *testing.T) {
	store := model.NewFileStore([]model.FileEntry{
		{Name: "abc_with_lots_of_noise_in_between.mkv"},
		{Name: "abc.mkv"},
	})

	results := Search("abc", store).Wait()
	if len(results) != 2 {
		t.Fatalf("expected two matches, got %d", len(results))
	}
	if results[0].Entry.Name != "abc.mkv" {
		t.Fatalf("expected the tighter match to rank first, got %q", results[0].Entry.Name)
	}
}

func TestFuzzySearchAbortYieldsNoResults(t *testing.T) {
	entries := make([]model.FileEntry, 5000)
	for i := range entries {
		entries[i] = model.FileEntry{Name: "video_file_candidate.mkv"}
	}
	store := model.NewFileStore(entries)

	search := Search("video", store)
	search.Abort()

	select {
	case <-time.After(2 * time.Second):
		t.Fatal("search did not complete after abort")
	case results := <-waitAsync(search):
		if results != nil {
			t.Fatalf("expected a cancelled search to yield no results, got %d", len(results))
		}
	}
}

func waitAsync(search *FuzzySearch) <-chan []FuzzyResult {
	out := make(chan []FuzzyResult, 1)
	go func() { out <- search.Wait() }()
	return out
}
