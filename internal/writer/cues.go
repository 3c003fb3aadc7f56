package writer

import (
	"fmt"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// Cue is a labelled timeline time from an external source: a beat, a
// subtitle, a transcript line.
type Cue struct {
	At    rational.TimeValue
	Label string
	Note  string
}

// CueResult reports an import. Skipped counts cues that fell outside every
// clip and gap.
type CueResult struct {
	BatchResult
	Skipped int
}

// ImportCues places one marker of kind per cue on the clip or gap of the
// primary storyline that covers it. Unlabelled cues are named "Cue N".
// Chapter markers drop the note.
func (e *Editor) ImportCues(cues []Cue, kind ir.MarkerKind) (CueResult, error) {
	var res CueResult
	err := e.apply("import_cues", func(tl *ir.Timeline) error {
		res = CueResult{}
		rate := tl.FrameRate()
		for i, cue := range cues {
			at := rate.AlignFloor(cue.At)
			it, _, ok := tl.ItemAt(at)
			host, isHost := it.(ir.Host)
			if !ok || !isHost {
				res.Skipped++
				continue
			}
			label := cue.Label
			if label == "" {
				label = fmt.Sprintf("Cue %d", i+1)
			}
			note := cue.Note
			if !kind.AllowsNote() {
				note = ""
			}
			m, err := e.newMarker(tl, MarkerSpec{Kind: kind, Start: ir.LocalTime(host, at), Value: label, Note: note})
			if err != nil {
				return err
			}
			switch h := host.(type) {
			case *ir.Clip:
				h.Markers = append(h.Markers, m)
			case *ir.Gap:
				h.Markers = append(h.Markers, m)
			}
			res.Placed = append(res.Placed, MarkerResult{Host: host.ItemID(), Kind: kind, Start: m.Start})
		}
		if res.Skipped > 0 {
			e.logger.Warn("cues outside the timeline skipped", "skipped", res.Skipped)
		}
		return nil
	})
	return res, err
}
