// Package cues reads timed labels from subtitle files, timestamped
// transcripts and beat-analysis JSON. Every time is read exactly: decimal
// seconds become rationals without passing through a float.
package cues

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// Cue is one labelled time.
type Cue struct {
	At    rational.TimeValue
	Label string
	Note  string
}

// Format names a cue source format.
type Format string

const (
	FormatSRT        Format = "srt"
	FormatVTT        Format = "vtt"
	FormatTranscript Format = "transcript"
	FormatBeats      Format = "beats"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT, nil
	case ".vtt":
		return FormatVTT, nil
	case ".txt", ".md":
		return FormatTranscript, nil
	case ".json":
		return FormatBeats, nil
	}
	return "", ir.Formatf("no cue format for extension %q", filepath.Ext(path))
}

// Options tune Parse.
type Options struct {
	// Rate resolves SMPTE timecodes in transcripts. Zero means 24 fps.
	Rate rational.FrameRate
	// Beats selects which beats of a beat file to keep.
	Beats BeatFilter
}

// Parse reads data in the given format.
func Parse(format Format, data []byte, opts Options) ([]Cue, error) {
	switch format {
	case FormatSRT:
		return ParseSRT(string(data))
	case FormatVTT:
		return ParseVTT(string(data))
	case FormatTranscript:
		rate := opts.Rate
		if rate.IsZero() {
			rate = rational.Rate24
		}
		return ParseTranscript(string(data), rate)
	case FormatBeats:
		return ParseBeats(data, opts.Beats)
	}
	return nil, ir.Formatf("unknown cue format %q", format)
}

// ReadFile reads a cue file, picking the format from its extension. Files
// above maxBytes are refused before they are read.
func ReadFile(path string, maxBytes int64, opts Options) ([]Cue, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	return ReadFileAs(path, format, maxBytes, opts)
}

// ReadFileAs is ReadFile with an explicit format.
func ReadFileAs(path string, format Format, maxBytes int64, opts Options) ([]Cue, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ir.Error{Kind: ir.KindInternal, Message: "cannot read cue file", Err: err}
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, ir.SizeLimitf("cue file is %s, above the %s limit",
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(maxBytes)))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ir.Error{Kind: ir.KindInternal, Message: "cannot read cue file", Err: err}
	}
	return Parse(format, data, opts)
}

// clockTime reads "[HH:]MM:SS[.fff]" with '.' or ',' before the fraction.
func clockTime(s string) (rational.TimeValue, error) {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return rational.TimeValue{}, ir.Formatf("malformed cue time %q", s)
	}
	var whole int64
	for _, p := range parts[:len(parts)-1] {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return rational.TimeValue{}, ir.Formatf("malformed cue time %q", s)
		}
		whole = whole*60 + n
	}
	secs, err := rational.Parse(parts[len(parts)-1] + "s")
	if err != nil || secs.Sign() < 0 {
		return rational.TimeValue{}, ir.Formatf("malformed cue time %q", s)
	}
	return rational.Seconds(whole * 60).Add(secs).Simplify(), nil
}
