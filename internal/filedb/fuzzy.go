package filedb

import (
	"runtime"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/gammazero/workerpool"

	"github.com/meshwatch/meshwatch/internal/model"
)

// FuzzyResult is one scored match against a fuzzy query.
type FuzzyResult struct {
	Score int64
	Hits  []int
	Entry model.FileEntry
}

// FuzzySearch runs a single, cancellable fuzzy query over a snapshot of a
// file store. It is one-pass: once stopped or finished it cannot be
// restarted, matching a search being reissued per keystroke rather than
// resumed.
type FuzzySearch struct {
	stop *atomic.Bool
	done chan struct{}
	res  []FuzzyResult
}

// Search launches a fuzzy query over store for query, scoring entries
// concurrently across a worker pool. The store is a snapshot: entries
// added to the database after Search is called are not considered.
func Search(query string, store model.FileStore) *FuzzySearch {
	stop := &atomic.Bool{}
	fs := &FuzzySearch{stop: stop, done: make(chan struct{})}

	entries := store.Entries()
	results := make([]FuzzyResult, len(entries))
	hit := make([]bool, len(entries))

	go func() {
		defer close(fs.done)

		wp := workerpool.New(runtime.NumCPU())
		var aborted atomic.Bool
		for i, entry := range entries {
			i, entry := i, entry
			wp.Submit(func() {
				if stop.Load() {
					aborted.Store(true)
					return
				}
				score, hits, ok := fuzzyMatch(entry.Name, query)
				if !ok {
					return
				}
				results[i] = FuzzyResult{Score: score, Hits: hits, Entry: entry}
				hit[i] = true
			})
		}
		wp.StopWait()

		if aborted.Load() || stop.Load() {
			fs.res = nil
			return
		}

		out := make([]FuzzyResult, 0, len(results))
		for i, ok := range hit {
			if ok {
				out = append(out, results[i])
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
		fs.res = out
	}()

	return fs
}

// Wait blocks until the search completes, returning its results. A
// cancelled search returns no results, matching a query abandoned
// mid-scan rather than answered with a partial one.
func (f *FuzzySearch) Wait() []FuzzyResult {
	<-f.done
	return f.res
}

// Abort cancels the search. Workers already scoring an entry finish that
// entry but no further entries are scored, and the search yields no
// results once stopped.
func (f *FuzzySearch) Abort() {
	f.stop.Store(true)
}

// fuzzyMatch is a Skim-style subsequence matcher: query characters must
// appear in order (case-insensitive) within name, earning bonus score for
// consecutive runs and for matches at the start of a word.
func fuzzyMatch(name, query string) (score int64, hits []int, ok bool) {
	if query == "" {
		return 0, nil, true
	}

	runes := []rune(strings.ToLower(name))
	q := []rune(strings.ToLower(query))

	hits = make([]int, 0, len(q))
	qi := 0
	consecutive := int64(0)

	for ri, r := range runes {
		if qi >= len(q) {
			break
		}
		if r != q[qi] {
			consecutive = 0
			continue
		}

		hits = append(hits, ri)
		score += 16
		if consecutive > 0 {
			score += 16 * consecutive
		}
		if ri == 0 || isWordBoundary(runes[ri-1]) {
			score += 8
		}
		consecutive++
		qi++
	}

	if qi != len(q) {
		return 0, nil, false
	}
	// Shorter names with the same hits score slightly higher, favoring
	// tighter matches over incidental ones in long paths.
	score -= int64(len(runes) - len(hits))
	return score, hits, true
}

func isWordBoundary(r rune) bool {
	return r == '_' || r == '-' || r == '.' || r == ' ' || r == '/'
}
