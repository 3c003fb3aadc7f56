package writer

import (
	"math/big"
	"strings"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// SilenceReason says why an item looks silent.
type SilenceReason string

const (
	ReasonGap             SilenceReason = "gap"
	ReasonNameMatch       SilenceReason = "name_match"
	ReasonUltraShort      SilenceReason = "ultra_short"
	ReasonDurationAnomaly SilenceReason = "duration_anomaly"
)

// Confidence of each heuristic, in percent.
const (
	confidenceGap        = 90
	confidenceNameMatch  = 85
	confidenceUltraShort = 60
	confidenceAnomaly    = 40
)

// DefaultSilencePatterns are the clip name fragments that suggest silence.
var DefaultSilencePatterns = []string{"gap", "silence", "room tone", "dead air", "blank"}

var ultraShort = rational.MustNew(1, 2)

// SilenceOptions tunes silence detection. Zero values take the defaults:
// MinGap half a second, DefaultSilencePatterns, MinConfidence 70.
type SilenceOptions struct {
	MinGap        rational.TimeValue
	Patterns      []string
	MinConfidence int
}

func (o SilenceOptions) withDefaults() SilenceOptions {
	if o.MinGap.Sign() <= 0 {
		o.MinGap = ultraShort
	}
	if len(o.Patterns) == 0 {
		o.Patterns = DefaultSilencePatterns
	}
	if o.MinConfidence <= 0 {
		o.MinConfidence = 70
	}
	return o
}

// SilenceCandidate is one item of the primary storyline that may be silent.
// An item can appear once per reason.
type SilenceCandidate struct {
	ItemID     string             `json:"item_id"`
	Name       string             `json:"name"`
	Offset     rational.TimeValue `json:"offset"`
	Duration   rational.TimeValue `json:"duration"`
	Reason     SilenceReason      `json:"reason"`
	Confidence int                `json:"confidence"`
}

// DetectSilence looks for likely silence using the timeline alone: gaps,
// clips named like room tone, clips under half a second and clips far
// longer than the rest (more than two standard deviations above the mean).
func (e *Editor) DetectSilence(opts SilenceOptions) []SilenceCandidate {
	return detectSilence(e.Timeline(), opts.withDefaults())
}

func detectSilence(tl *ir.Timeline, opts SilenceOptions) []SilenceCandidate {
	clips := tl.Clips()
	long := anomalous(clips)

	var out []SilenceCandidate
	add := func(it ir.SpineItem, name string, reason SilenceReason, conf int) {
		off, dur := it.Span()
		out = append(out, SilenceCandidate{
			ItemID: it.ItemID(), Name: name, Offset: off, Duration: dur,
			Reason: reason, Confidence: conf,
		})
	}
	for _, it := range tl.Spine.Items {
		switch v := it.(type) {
		case *ir.Gap:
			if !v.Duration.Less(opts.MinGap) {
				add(v, v.Name, ReasonGap, confidenceGap)
			}
		case *ir.Clip:
			name := strings.ToLower(v.Name)
			for _, p := range opts.Patterns {
				if p != "" && strings.Contains(name, strings.ToLower(p)) {
					add(v, v.Name, ReasonNameMatch, confidenceNameMatch)
					break
				}
			}
			if v.Duration.Less(ultraShort) {
				add(v, v.Name, ReasonUltraShort, confidenceUltraShort)
			}
			if long[v] {
				add(v, v.Name, ReasonDurationAnomaly, confidenceAnomaly)
			}
		}
	}
	return out
}

// anomalous marks clips whose duration d satisfies d > mean + 2σ, computed
// exactly as d > mean and (d-mean)² > 4·variance.
func anomalous(clips []*ir.Clip) map[*ir.Clip]bool {
	out := make(map[*ir.Clip]bool)
	if len(clips) < 2 {
		return out
	}
	n := big.NewRat(int64(len(clips)), 1)
	durs := make([]*big.Rat, len(clips))
	mean := new(big.Rat)
	for i, c := range clips {
		durs[i] = big.NewRat(c.Duration.Num(), c.Duration.Den())
		mean.Add(mean, durs[i])
	}
	mean.Quo(mean, n)

	variance := new(big.Rat)
	for _, d := range durs {
		dev := new(big.Rat).Sub(d, mean)
		variance.Add(variance, dev.Mul(dev, dev))
	}
	variance.Quo(variance, n)
	if variance.Sign() == 0 {
		return out
	}
	limit := new(big.Rat).Mul(variance, big.NewRat(4, 1))
	for i, d := range durs {
		dev := new(big.Rat).Sub(d, mean)
		if dev.Sign() > 0 && new(big.Rat).Mul(dev, dev).Cmp(limit) > 0 {
			out[clips[i]] = true
		}
	}
	return out
}

// MarkSilence puts a "SILENCE: <reason>" marker at the head of every
// candidate at or above MinConfidence.
func (e *Editor) MarkSilence(opts SilenceOptions) (BatchResult, error) {
	opts = opts.withDefaults()
	var res BatchResult
	err := e.apply("mark_silence", func(tl *ir.Timeline) error {
		res = BatchResult{}
		ix := tl.Index()
		for _, cand := range detectSilence(tl, opts) {
			if cand.Confidence < opts.MinConfidence {
				continue
			}
			loc, ok := ix.Get(cand.ItemID)
			if !ok {
				continue
			}
			host, ok := loc.Item.(ir.Host)
			if !ok {
				continue
			}
			m, err := e.newMarker(tl, MarkerSpec{
				Kind:  ir.MarkerStandard,
				Start: host.LocalStart(),
				Value: "SILENCE: " + string(cand.Reason),
			})
			if err != nil {
				return err
			}
			switch h := host.(type) {
			case *ir.Clip:
				h.Markers = append(h.Markers, m)
			case *ir.Gap:
				h.Markers = append(h.Markers, m)
			}
			res.Placed = append(res.Placed, MarkerResult{Host: cand.ItemID, Kind: m.Kind, Start: m.Start})
		}
		return nil
	})
	return res, err
}

// RemoveSilence ripple-deletes every item with a candidate at or above
// MinConfidence.
func (e *Editor) RemoveSilence(opts SilenceOptions) (DeleteResult, error) {
	opts = opts.withDefaults()
	var res DeleteResult
	err := e.apply("remove_silence", func(tl *ir.Timeline) error {
		res = DeleteResult{}
		origin := tl.Origin()
		drop := make(map[string]bool)
		for _, cand := range detectSilence(tl, opts) {
			if cand.Confidence >= opts.MinConfidence && !drop[cand.ItemID] {
				drop[cand.ItemID] = true
				res.Removed = append(res.Removed, cand.ItemID)
			}
		}
		if len(drop) == 0 {
			return nil
		}
		items := tl.Spine.Items[:0:0]
		for _, it := range tl.Spine.Items {
			if !drop[it.ItemID()] {
				items = append(items, it)
			}
		}
		tl.Spine.Items = items
		res.DroppedTransitions = e.relayout(tl, origin)
		return nil
	})
	return res, err
}
