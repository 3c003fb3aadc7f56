package cues_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spine/internal/cues"
	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

func at(t *testing.T, s string) rational.TimeValue {
	t.Helper()
	v, err := rational.Parse(s)
	require.NoError(t, err)
	return v
}

func assertCues(t *testing.T, want []cues.Cue, got []cues.Cue) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].At.Equal(got[i].At), "cue %d at %s, want %s", i, got[i].At, want[i].At)
		assert.Equal(t, want[i].Label, got[i].Label, "cue %d", i)
	}
}

func TestParseSRT(t *testing.T) {
	srt := "1\r\n00:00:01,500 --> 00:00:03,000\r\nHello there\r\n\r\n" +
		"2\n00:01:02,250 --> 00:01:05,000\nSecond line\ncontinues\n\n" +
		"3\nno timestamp here\n"

	got, err := cues.ParseSRT(srt)
	require.NoError(t, err)
	assertCues(t, []cues.Cue{
		{At: at(t, "3/2s"), Label: "Hello there"},
		{At: at(t, "249/4s"), Label: "Second line continues"},
	}, got)
}

func TestParseSRTRejectsBadTime(t *testing.T) {
	_, err := cues.ParseSRT("1\n00:xx:01,000 --> 00:00:02,000\nBad\n")
	require.Error(t, err)
	assert.Equal(t, ir.KindFormat, ir.KindOf(err))
}

func TestParseVTT(t *testing.T) {
	vtt := "WEBVTT - chapters\n\n" +
		"NOTE written by hand\nspans two lines\n\n" +
		"STYLE\n::cue { color: red }\n\n" +
		"intro\n00:05.000 --> 00:07.000 align:start\n<v Narrator>Welcome <b>back</b></v>\n\n" +
		"01:00:00.040 --> 01:00:01.000\n<i></i>\n\n" +
		"01:00:00.100 --> 01:00:01.000\nLate\n"

	got, err := cues.ParseVTT(vtt)
	require.NoError(t, err)
	assertCues(t, []cues.Cue{
		{At: at(t, "5s"), Label: "Welcome back"},
		{At: at(t, "36001/10s"), Label: "Late"},
	}, got)
}

func TestParseTranscript(t *testing.T) {
	text := "Chapters\n0:00 Intro\n  1:30 Main topic \n1:05:30 Outro\n00:01:00:12 Frame cut\nnot a stamp\n"

	got, err := cues.ParseTranscript(text, rational.Rate24)
	require.NoError(t, err)
	assertCues(t, []cues.Cue{
		{At: at(t, "0s"), Label: "Intro"},
		{At: at(t, "90s"), Label: "Main topic"},
		{At: at(t, "3930s"), Label: "Outro"},
		{At: at(t, "121/2s"), Label: "Frame cut"},
	}, got)
}

func TestParseTranscriptRejectsFrameOutOfRange(t *testing.T) {
	_, err := cues.ParseTranscript("00:00:01:30 Too far\n", rational.Rate24)
	require.Error(t, err)
	assert.Equal(t, ir.KindFormat, ir.KindOf(err))
}

func TestParseBeats(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		filter cues.BeatFilter
		want   []cues.Cue
	}{
		{
			name: "bare array of seconds",
			json: `[0.5, 1, 1.1]`,
			want: []cues.Cue{
				{At: at(t, "1/2s"), Label: "Beat 1"},
				{At: at(t, "1s"), Label: "Beat 2"},
				{At: at(t, "11/10s"), Label: "Beat 3"},
			},
		},
		{
			name: "objects under markers",
			json: `{"markers": [{"time": 2.25, "label": "Drop"}, {"position": 4}]}`,
			want: []cues.Cue{
				{At: at(t, "9/4s"), Label: "Drop"},
				{At: at(t, "4s"), Label: "Beat 2"},
			},
		},
		{
			name:   "downbeats list wins",
			json:   `{"beats": [0, 0.5, 1, 1.5, 2], "downbeats": [0, 2]}`,
			filter: cues.BeatsDownbeat,
			want: []cues.Cue{
				{At: at(t, "0s"), Label: "Beat 1"},
				{At: at(t, "2s"), Label: "Beat 2"},
			},
		},
		{
			name:   "measures fall back to every fourth beat",
			json:   `{"times": [0, 0.5, 1, 1.5, 2, 2.5]}`,
			filter: cues.BeatsMeasure,
			want: []cues.Cue{
				{At: at(t, "0s"), Label: "Beat 1"},
				{At: at(t, "2s"), Label: "Beat 2"},
			},
		},
		{
			name: "object without a beat list",
			json: `{"tempo": 120}`,
			want: []cues.Cue{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cues.ParseBeats([]byte(tt.json), tt.filter)
			require.NoError(t, err)
			assertCues(t, tt.want, got)
		})
	}
}

func TestParseBeatsRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"invalid json":   `[1, 2`,
		"scalar":         `42`,
		"string time":    `["1.5"]`,
		"negative":       `[-1]`,
		"exponent":       `[1e3]`,
		"object no time": `[{"label": "x"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := cues.ParseBeats([]byte(doc), cues.BeatsAll)
			require.Error(t, err)
			assert.Equal(t, ir.KindFormat, ir.KindOf(err))
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subs.srt")
	require.NoError(t, os.WriteFile(path, []byte("1\n00:00:02,000 --> 00:00:03,000\nHi\n"), 0o644))

	got, err := cues.ReadFile(path, 0, cues.Options{})
	require.NoError(t, err)
	assertCues(t, []cues.Cue{{At: at(t, "2s"), Label: "Hi"}}, got)

	_, err = cues.ReadFile(path, 10, cues.Options{})
	require.Error(t, err)
	assert.Equal(t, ir.KindSizeLimit, ir.KindOf(err))

	_, err = cues.ReadFile(filepath.Join(dir, "cues.doc"), 0, cues.Options{})
	assert.Equal(t, ir.KindFormat, ir.KindOf(err))

	_, err = cues.ReadFile(filepath.Join(dir, "missing.vtt"), 0, cues.Options{})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), dir)
}

func TestParseBeatFilter(t *testing.T) {
	f, err := cues.ParseBeatFilter(" Downbeat ")
	require.NoError(t, err)
	assert.Equal(t, cues.BeatsDownbeat, f)

	_, err = cues.ParseBeatFilter("bar")
	assert.Error(t, err)
}
