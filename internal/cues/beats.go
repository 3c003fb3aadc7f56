package cues

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// BeatFilter selects beats from an analysis file.
type BeatFilter string

const (
	BeatsAll BeatFilter = "all"
	// BeatsDownbeat keeps the "downbeats" list, or every fourth beat when
	// the file has none.
	BeatsDownbeat BeatFilter = "downbeat"
	// BeatsMeasure keeps the "measures" list, or every fourth beat.
	BeatsMeasure BeatFilter = "measure"
)

// ParseBeatFilter reads a filter name; empty means BeatsAll.
func ParseBeatFilter(s string) (BeatFilter, error) {
	switch f := BeatFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return BeatsAll, nil
	case BeatsAll, BeatsDownbeat, BeatsMeasure:
		return f, nil
	}
	return "", ir.Formatf("unknown beat filter %q", s)
}

// ParseBeats reads beat-analysis JSON. Accepted shapes are a bare array, or
// an object carrying the array under "beats", "times" or "markers". Array
// entries are seconds, or objects with "time" (or "position") and an
// optional "label". Numbers are read from their JSON text, so 0.1 is
// exactly one tenth.
func ParseBeats(data []byte, filter BeatFilter) ([]Cue, error) {
	if !gjson.ValidBytes(data) {
		return nil, ir.Formatf("beat file is not valid JSON")
	}
	doc := gjson.ParseBytes(data)

	var list gjson.Result
	switch {
	case doc.IsArray():
		list = doc
	case doc.IsObject():
		for _, key := range []string{"beats", "times", "markers"} {
			if r := doc.Get(key); r.IsArray() {
				list = r
				break
			}
		}
	default:
		return nil, ir.Formatf("beat file must hold an array or an object")
	}

	entries := list.Array()
	switch filter {
	case "", BeatsAll:
	case BeatsDownbeat, BeatsMeasure:
		key := "downbeats"
		if filter == BeatsMeasure {
			key = "measures"
		}
		if r := doc.Get(key); doc.IsObject() && r.IsArray() {
			entries = r.Array()
		} else {
			entries = everyFourth(entries)
		}
	default:
		return nil, ir.Formatf("unknown beat filter %q", filter)
	}

	out := make([]Cue, 0, len(entries))
	for i, e := range entries {
		c, err := beatCue(e, i)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func everyFourth(in []gjson.Result) []gjson.Result {
	var out []gjson.Result
	for i := 0; i < len(in); i += 4 {
		out = append(out, in[i])
	}
	return out
}

func beatCue(e gjson.Result, i int) (Cue, error) {
	label := fmt.Sprintf("Beat %d", i+1)
	tv := e
	if e.IsObject() {
		tv = e.Get("time")
		if !tv.Exists() {
			tv = e.Get("position")
		}
		if l := e.Get("label"); l.Type == gjson.String && l.Str != "" {
			label = l.Str
		}
	}
	if tv.Type != gjson.Number {
		return Cue{}, ir.Formatf("beat %d has no numeric time", i+1)
	}
	at, err := rational.Parse(tv.Raw + "s")
	if err != nil {
		return Cue{}, ir.Formatf("beat %d time %s is not an exact decimal", i+1, tv.Raw)
	}
	if at.Sign() < 0 {
		return Cue{}, ir.Formatf("beat %d is before zero", i+1)
	}
	return Cue{At: at.Simplify(), Label: label}, nil
}
