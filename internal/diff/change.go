package diff

import (
	"fmt"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// Kind names a change.
type Kind string

const (
	ClipAdded         Kind = "clip_added"
	ClipRemoved       Kind = "clip_removed"
	ClipMoved         Kind = "clip_moved"
	ClipTrimmed       Kind = "clip_trimmed"
	MarkerAdded       Kind = "marker_added"
	MarkerRemoved     Kind = "marker_removed"
	MarkerChanged     Kind = "marker_changed"
	TransitionAdded   Kind = "transition_added"
	TransitionRemoved Kind = "transition_removed"
	TransitionChanged Kind = "transition_changed"
	FormatChanged     Kind = "format_changed"
)

// Span places an element on the timeline. Offset is absolute timeline time;
// Start is the source in-point for clips and zero otherwise.
type Span struct {
	Offset   rational.TimeValue `json:"offset"`
	Start    rational.TimeValue `json:"start"`
	Duration rational.TimeValue `json:"duration"`
	Lane     int                `json:"lane"`
}

func (s *Span) canonical() map[string]any {
	return map[string]any{
		"offset":   s.Offset.Simplify(),
		"start":    s.Start.Simplify(),
		"duration": s.Duration.Simplify(),
		"lane":     s.Lane,
	}
}

// Change is one entry of a change set. Before is nil for additions and
// After is nil for removals.
type Change struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"`
	Ref     string `json:"ref,omitempty"`
	Before  *Span  `json:"before,omitempty"`
	After   *Span  `json:"after,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func (c Change) String() string {
	if c.Detail == "" {
		return fmt.Sprintf("%s %s", c.Kind, c.Subject)
	}
	return fmt.Sprintf("%s %s: %s", c.Kind, c.Subject, c.Detail)
}

// at is the time a change is sorted by.
func (c Change) at() rational.TimeValue {
	switch {
	case c.After != nil:
		return c.After.Offset
	case c.Before != nil:
		return c.Before.Offset
	}
	return rational.Zero
}

func (c Change) canonical() map[string]any {
	m := map[string]any{
		"kind":    string(c.Kind),
		"subject": c.Subject,
	}
	if c.Ref != "" {
		m["ref"] = c.Ref
	}
	if c.Before != nil {
		m["before"] = c.Before.canonical()
	}
	if c.After != nil {
		m["after"] = c.After.canonical()
	}
	if c.Detail != "" {
		m["detail"] = c.Detail
	}
	return m
}

// ChangeSet is the ordered result of Compare.
type ChangeSet struct {
	Before  string   `json:"before"`
	After   string   `json:"after"`
	Changes []Change `json:"changes"`
}

// Empty reports whether the timelines are equivalent.
func (cs *ChangeSet) Empty() bool { return len(cs.Changes) == 0 }

// Count returns the number of changes of each kind.
func (cs *ChangeSet) Count() map[Kind]int {
	out := make(map[Kind]int)
	for _, c := range cs.Changes {
		out[c.Kind]++
	}
	return out
}

// Fingerprint identifies the change set by its content. Timeline names are
// left out so renaming a copy does not change it.
func (cs *ChangeSet) Fingerprint() (string, error) {
	changes := make([]any, len(cs.Changes))
	for i, c := range cs.Changes {
		changes[i] = c.canonical()
	}
	return ir.FingerprintValue(ir.DomainChangeSet, map[string]any{"changes": changes})
}
