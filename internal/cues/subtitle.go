package cues

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

var (
	blankLine  = regexp.MustCompile(`\n[ \t]*\n`)
	markupTag  = regexp.MustCompile(`<[^>]+>`)
	stampStart = regexp.MustCompile(`^(\d{1,2}:\d{2}(?::\d{2}){0,2})\s+(.+)$`)
)

// ParseSRT reads SubRip subtitles. Each block becomes a cue at its start
// time labelled with its text lines joined by spaces.
func ParseSRT(text string) ([]Cue, error) {
	return parseBlocks(text, false)
}

// ParseVTT reads WebVTT subtitles. The header, NOTE, STYLE and REGION
// blocks are skipped and inline markup is removed from cue text.
func ParseVTT(text string) ([]Cue, error) {
	return parseBlocks(text, true)
}

func parseBlocks(text string, vtt bool) ([]Cue, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []Cue
	for i, block := range blankLine.Split(strings.TrimSpace(text), -1) {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if vtt && (i == 0 && strings.HasPrefix(lines[0], "WEBVTT") || isVTTMeta(lines[0])) {
			continue
		}
		stamp := -1
		for j, l := range lines {
			if strings.Contains(l, "-->") {
				stamp = j
				break
			}
		}
		if stamp < 0 {
			continue
		}
		start, _, _ := strings.Cut(lines[stamp], "-->")
		at, err := clockTime(start)
		if err != nil {
			return nil, ir.Formatf("subtitle block %d has a malformed start time %q", i+1, strings.TrimSpace(start))
		}
		var words []string
		for _, l := range lines[stamp+1:] {
			if vtt {
				l = markupTag.ReplaceAllString(l, "")
			}
			if l = strings.TrimSpace(l); l != "" {
				words = append(words, l)
			}
		}
		if vtt && len(words) == 0 {
			continue
		}
		out = append(out, Cue{At: at, Label: strings.Join(words, " ")})
	}
	return out, nil
}

func isVTTMeta(first string) bool {
	for _, kw := range []string{"NOTE", "STYLE", "REGION"} {
		if first == kw || strings.HasPrefix(first, kw+" ") {
			return true
		}
	}
	return false
}

// ParseTranscript reads one "timestamp label" per line, the layout of video
// chapter lists: "0:00 Intro", "1:05:30 Outro" or SMPTE "00:01:00:12 Cut",
// whose frame field is resolved at rate. Lines without a leading timestamp
// are ignored.
func ParseTranscript(text string, rate rational.FrameRate) ([]Cue, error) {
	var out []Cue
	for n, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		m := stampStart.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		var (
			at  rational.TimeValue
			err error
		)
		if strings.Count(m[1], ":") == 3 {
			at, err = rational.FromTimecode(m[1], rate)
		} else {
			at, err = clockTime(m[1])
		}
		if err != nil {
			return nil, ir.Wrap(err, "line "+strconv.Itoa(n+1))
		}
		out = append(out, Cue{At: at, Label: strings.TrimSpace(m[2])})
	}
	return out, nil
}
