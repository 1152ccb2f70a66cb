// Package vectorindex implements an in-memory flat index over knowledge
// entry embeddings. Two indices are kept: one over full entries and one
// over overlapping text chunks. Similarity is 1/(1+d) for Euclidean
// distance d.
package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/eduassist/campusrag/internal/chunker"
	"github.com/eduassist/campusrag/internal/embedding"
	"github.com/eduassist/campusrag/internal/model"
)

// Kind tags which sub-index produced a match.
type Kind string

const (
	KindFull  Kind = "vector_full"
	KindChunk Kind = "vector_chunk"
)

// Match is a nearest-neighbor hit against one of the indices.
type Match struct {
	EntryID   string
	Kind      Kind
	Score     float64 // 1/(1+distance)
	ChunkText string  // set for chunk matches
}

type fullEntry struct {
	entryID string
	vec     embedding.Vector
}

type chunkEntry struct {
	entryID string
	text    string
	vec     embedding.Vector
}

// Index is safe for concurrent use: reads proceed concurrently, appends
// take the write lock.
type Index struct {
	embedder embedding.Embedder
	chunkOpt chunker.Options

	mu     sync.RWMutex
	full   []fullEntry
	chunks []chunkEntry
}

// New creates an empty index backed by the given embedder.
func New(embedder embedding.Embedder, opts chunker.Options) *Index {
	return &Index{embedder: embedder, chunkOpt: opts}
}

// Build indexes the given entries, replacing any existing contents.
// Called once at startup with all validated entries.
func (ix *Index) Build(ctx context.Context, entries []model.KnowledgeEntry) error {
	var full []fullEntry
	var chunks []chunkEntry

	for i := range entries {
		e := &entries[i]
		fe, ce, err := ix.encode(ctx, e)
		if err != nil {
			return fmt.Errorf("index entry %s: %w", e.ID, err)
		}
		full = append(full, fe)
		chunks = append(chunks, ce...)
	}

	ix.mu.Lock()
	ix.full = full
	ix.chunks = chunks
	ix.mu.Unlock()
	return nil
}

// Add appends a single entry to both indices.
func (ix *Index) Add(ctx context.Context, entry *model.KnowledgeEntry) error {
	fe, ce, err := ix.encode(ctx, entry)
	if err != nil {
		return fmt.Errorf("index entry %s: %w", entry.ID, err)
	}

	ix.mu.Lock()
	ix.full = append(ix.full, fe)
	ix.chunks = append(ix.chunks, ce...)
	ix.mu.Unlock()
	return nil
}

func (ix *Index) encode(ctx context.Context, e *model.KnowledgeEntry) (fullEntry, []chunkEntry, error) {
	fullVec, err := ix.embedder.Embed(ctx, e.Question+" "+e.Answer)
	if err != nil {
		return fullEntry{}, nil, err
	}

	var ce []chunkEntry
	for _, text := range chunker.Chunk(e.Question+"\n"+e.Answer, ix.chunkOpt) {
		vec, err := ix.embedder.Embed(ctx, text)
		if err != nil {
			return fullEntry{}, nil, err
		}
		ce = append(ce, chunkEntry{entryID: e.ID, text: text, vec: vec})
	}
	return fullEntry{entryID: e.ID, vec: fullVec}, ce, nil
}

// Size returns the number of indexed entries and chunks.
func (ix *Index) Size() (entries, chunks int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.full), len(ix.chunks)
}

// Search returns up to k matches from the full index followed by up to k
// from the chunk index. An entry already matched in the full index is not
// reported again from the chunk index.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Match, error) {
	if k <= 0 {
		k = 10
	}
	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var matches []Match
	seen := map[string]bool{}

	for _, m := range nearestFull(ix.full, queryVec, k) {
		if seen[m.EntryID] {
			continue
		}
		seen[m.EntryID] = true
		matches = append(matches, m)
	}
	for _, m := range nearestChunks(ix.chunks, queryVec, k) {
		if seen[m.EntryID] {
			continue
		}
		seen[m.EntryID] = true
		matches = append(matches, m)
	}
	return matches, nil
}

func nearestFull(entries []fullEntry, q embedding.Vector, k int) []Match {
	type scored struct {
		i int
		d float64
	}
	ds := make([]scored, 0, len(entries))
	for i := range entries {
		ds = append(ds, scored{i, euclidean(q, entries[i].vec)})
	}
	sort.Slice(ds, func(a, b int) bool { return ds[a].d < ds[b].d })
	if len(ds) > k {
		ds = ds[:k]
	}
	out := make([]Match, 0, len(ds))
	for _, s := range ds {
		out = append(out, Match{
			EntryID: entries[s.i].entryID,
			Kind:    KindFull,
			Score:   1 / (1 + s.d),
		})
	}
	return out
}

func nearestChunks(entries []chunkEntry, q embedding.Vector, k int) []Match {
	type scored struct {
		i int
		d float64
	}
	ds := make([]scored, 0, len(entries))
	for i := range entries {
		ds = append(ds, scored{i, euclidean(q, entries[i].vec)})
	}
	sort.Slice(ds, func(a, b int) bool { return ds[a].d < ds[b].d })
	if len(ds) > k {
		ds = ds[:k]
	}
	out := make([]Match, 0, len(ds))
	for _, s := range ds {
		out = append(out, Match{
			EntryID:   entries[s.i].entryID,
			Kind:      KindChunk,
			Score:     1 / (1 + s.d),
			ChunkText: entries[s.i].text,
		})
	}
	return out
}

func euclidean(a, b embedding.Vector) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
