package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSnapshot_IsCanonical(t *testing.T) {
	r := NewResult()
	r.Trace = []TraceEvent{
		{Step: 1, Op: "list_clips", OperationID: "op-1", Changes: map[string]int{"moved": 1}},
		{Step: 2, Op: "trim_clip", Args: map[string]any{"clip": "A"}, Error: "REFERENCE_ERROR"},
	}
	r.Final = FinalState{
		Clips:    []ClipState{{Name: "A", Offset: "0s", Duration: "30s"}},
		Markers:  []MarkerState{},
		Duration: "30s",
		Valid:    true,
	}

	data, err := MarshalSnapshot("snap", r)
	require.NoError(t, err)
	assert.Equal(t,
		`{"final":{"clips":[{"duration":"30s","lane":0,"name":"A","offset":"0s"}],"duration":"30s","markers":[],"valid":true},`+
			`"scenario_name":"snap",`+
			`"trace":[{"args":{},"op":"list_clips","step":1},{"args":{"clip":"A"},"error":"REFERENCE_ERROR","op":"trim_clip","step":2}]}`,
		string(data))
}
