// Package drift measures how much the visible text of a page changed between
// two captures.
package drift

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// maxChunks bounds the number of changed fragments kept in a Result.
const maxChunks = 50

// Chunk is one inserted or removed fragment.
type Chunk struct {
	Type    string `json:"type"` // "added" or "removed"
	Content string `json:"content"`
}

// Result counts runes per diff operation.
type Result struct {
	Inserted int     `json:"inserted"`
	Deleted  int     `json:"deleted"`
	Equal    int     `json:"equal"`
	Ratio    float64 `json:"ratio"`
	Changed  bool    `json:"changed"`
	Chunks   []Chunk `json:"chunks,omitempty"`
}

// Compare diffs prev against cur. Ratio is the share of changed runes over
// both texts combined, 0 for identical input and 1 for disjoint input.
func Compare(prev, cur string) Result {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(prev, cur, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var r Result
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			r.Inserted += n
			r.addChunk("added", d.Text)
		case diffmatchpatch.DiffDelete:
			r.Deleted += n
			r.addChunk("removed", d.Text)
		case diffmatchpatch.DiffEqual:
			r.Equal += n
		}
	}

	total := utf8.RuneCountInString(prev) + utf8.RuneCountInString(cur)
	r.Ratio = float64(r.Inserted+r.Deleted) / float64(max(1, total))
	r.Changed = r.Inserted+r.Deleted > 0
	return r
}

func (r *Result) addChunk(kind, text string) {
	if len(r.Chunks) >= maxChunks || strings.TrimSpace(text) == "" {
		return
	}
	r.Chunks = append(r.Chunks, Chunk{Type: kind, Content: text})
}
