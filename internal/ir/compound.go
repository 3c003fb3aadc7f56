package ir

import "strings"

// ResolveCompounds links every ref-clip to its media sequence and rejects
// cycles. A compound that reaches its own sequence through any chain of
// ref-clips is a ReferenceError, never a truncated recursion.
func (p *Project) ResolveCompounds() error {
	edges := make(map[string][]string)
	var order []string
	var linkErr error

	link := func(owner string) func(*Clip, Visit) {
		return func(c *Clip, _ Visit) {
			if linkErr != nil || !c.IsCompound() {
				return
			}
			m, ok := p.Resources.Media(c.Ref)
			if !ok {
				linkErr = Referencef("compound clip references missing media %q", c.Ref).WithSubject(c.Label())
				return
			}
			if m.Sequence == nil {
				linkErr = Referencef("media %q has no sequence to nest", c.Ref).WithSubject(c.Label())
				return
			}
			c.Nested = m.Sequence
			if owner != "" {
				edges[owner] = append(edges[owner], m.ID)
			}
		}
	}

	for _, res := range p.Resources.Items() {
		if m, ok := res.(*Media); ok && m.Sequence != nil {
			order = append(order, m.ID)
			m.Sequence.WalkClips(link(m.ID))
		}
	}
	for _, tl := range p.AllTimelines() {
		tl.WalkClips(link(""))
	}
	if linkErr != nil {
		return linkErr
	}
	return findCycle(order, edges)
}

func findCycle(order []string, edges map[string][]string) error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var path []string

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			start := 0
			for i, p := range path {
				if p == id {
					start = i
					break
				}
			}
			cycle := append(append([]string(nil), path[start:]...), id)
			return Referencef("compound clip cycle %s", strings.Join(cycle, " -> ")).WithSubject(id)
		case done:
			return nil
		}
		state[id] = visiting
		path = append(path, id)
		for _, next := range edges[id] {
			if err := visit(next); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[id] = done
		return nil
	}

	for _, id := range order {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
