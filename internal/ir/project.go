package ir

// Project is a whole document: the <fcpxml> root.
type Project struct {
	Version   string
	Resources *Resources
	Library   *Library
	Events    []*Event
	Timelines []*Timeline
	Extra     Opaque
}

// Library groups events.
type Library struct {
	Events []*Event
	Extra  Opaque
}

// Event owns project timelines.
type Event struct {
	Name      string
	UID       string
	Timelines []*Timeline
	Extra     Opaque
}

// AllTimelines returns every project timeline in document order: library
// events, then top-level events, then top-level projects. Compound
// sequences are not included; see CompoundTimelines.
func (p *Project) AllTimelines() []*Timeline {
	var out []*Timeline
	if p.Library != nil {
		for _, ev := range p.Library.Events {
			out = append(out, ev.Timelines...)
		}
	}
	for _, ev := range p.Events {
		out = append(out, ev.Timelines...)
	}
	return append(out, p.Timelines...)
}

// AllEvents returns library events followed by top-level events.
func (p *Project) AllEvents() []*Event {
	var out []*Event
	if p.Library != nil {
		out = append(out, p.Library.Events...)
	}
	return append(out, p.Events...)
}

// CompoundTimelines returns the nested sequences of media resources.
func (p *Project) CompoundTimelines() []*Timeline {
	var out []*Timeline
	for _, res := range p.Resources.Items() {
		if m, ok := res.(*Media); ok && m.Sequence != nil {
			out = append(out, m.Sequence)
		}
	}
	return out
}

// Timeline returns the i-th project timeline.
func (p *Project) Timeline(i int) (*Timeline, error) {
	all := p.AllTimelines()
	if len(all) == 0 {
		return nil, Structuralf("document contains no project timeline")
	}
	if i < 0 || i >= len(all) {
		return nil, Referencef("timeline index %d out of range (document has %d)", i, len(all))
	}
	return all[i], nil
}

// Validate checks every timeline, including compound sequences, and the
// compound reference graph.
func (p *Project) Validate() error {
	if err := p.ResolveCompounds(); err != nil {
		return err
	}
	for _, tl := range p.CompoundTimelines() {
		if err := tl.Validate(); err != nil {
			return err
		}
	}
	for _, tl := range p.AllTimelines() {
		if err := tl.Validate(); err != nil {
			return err
		}
	}
	return nil
}
