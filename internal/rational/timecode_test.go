package rational

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateFromFrameDuration(t *testing.T) {
	r, err := RateFromFrameDuration(MustNew(1001, 30000))
	require.NoError(t, err)
	assert.Equal(t, int64(30), r.Timebase())
	assert.True(t, r.NTSC())
	assert.True(t, r.SupportsDropFrame())
	assert.Equal(t, "1001/30000s", r.FrameDuration().String())

	_, err = RateFromFrameDuration(Zero)
	assert.Error(t, err)
}

func TestParseRate(t *testing.T) {
	r, err := ParseRate("29.97")
	require.NoError(t, err)
	assert.True(t, r.Equal(Rate2997))

	r, err = ParseRate("25")
	require.NoError(t, err)
	assert.True(t, r.Equal(Rate25))

	_, err = ParseRate("0")
	assert.Error(t, err)
}

func TestFramesExact(t *testing.T) {
	n, ok := Rate2997.FramesExact(MustNew(1001*90, 30000))
	require.True(t, ok)
	assert.Equal(t, int64(90), n)

	_, ok = Rate24.FramesExact(MustNew(1, 100))
	assert.False(t, ok)

	assert.Equal(t, int64(2), Rate24.FramesFloor(MustNew(1, 10)))
	assert.Equal(t, int64(-1), Rate24.FramesFloor(MustNew(-1, 100)))
}

func TestFramesNearest(t *testing.T) {
	assert.Equal(t, int64(2), Rate24.FramesNearest(MustNew(1, 10)))
	assert.Equal(t, int64(1), Rate24.FramesNearest(MustNew(1, 48)), "halfway rounds up")
	assert.Equal(t, int64(1), Rate24.FramesNearest(MustNew(3, 100)))
	assert.Equal(t, int64(0), Rate24.FramesNearest(MustNew(-1, 100)))
	assert.Equal(t, int64(90), Rate2997.FramesNearest(MustNew(1001*90+400, 30000)))

	assert.True(t, MustNew(1001*7, 30000).Equal(Rate2997.AlignNearest(MustNew(233, 1000))))
}

// Every frame index must survive frame -> timecode -> time -> frame at every rate.
func TestTimecode_RoundTripAllRates(t *testing.T) {
	rates := []FrameRate{Rate23976, Rate24, Rate25, Rate2997, Rate30, Rate50, Rate5994, Rate60}
	for _, rate := range rates {
		for _, drop := range []bool{false, true} {
			if drop && !rate.SupportsDropFrame() {
				continue
			}
			for n := int64(0); n < 200000; n += 997 {
				tv := rate.FrameTime(n)
				tc, err := TimecodeOf(tv, rate, drop)
				require.NoError(t, err)
				back, err := FromTimecode(tc.String(), rate)
				require.NoError(t, err, "%s at %s", tc, rate)
				require.True(t, back.Equal(tv), "rate %s drop %v frame %d: %s -> %s", rate, drop, n, tv, back)
			}
		}
	}
}

func TestTimecode_DropFrameLabels(t *testing.T) {
	tc, err := TimecodeOf(Rate2997.FrameTime(1800), Rate2997, true)
	require.NoError(t, err)
	assert.Equal(t, "00:01:00;02", tc.String())

	tc, err = TimecodeOf(Rate2997.FrameTime(17982), Rate2997, true)
	require.NoError(t, err)
	assert.Equal(t, "00:10:00;00", tc.String())

	_, err = FromTimecode("00:01:00;00", Rate2997)
	assert.True(t, IsFormatError(err))
}

func TestTimecode_Validation(t *testing.T) {
	_, err := FromTimecode("00:00:00:24", Rate24)
	assert.True(t, IsFormatError(err))

	_, err = FromTimecode("00:61:00:00", Rate24)
	assert.True(t, IsFormatError(err))

	_, err = FromTimecode("00:00:00;00", Rate25)
	assert.True(t, IsFormatError(err))

	_, err = ParseTimecode("00:00:00")
	assert.True(t, IsFormatError(err))

	_, err = TimecodeOf(Seconds(-1), Rate24, false)
	assert.True(t, IsFormatError(err))
}

func TestTimecode_OneHour(t *testing.T) {
	v, err := FromTimecode("01:00:00:00", Rate24)
	require.NoError(t, err)
	assert.True(t, v.Equal(Seconds(3600)))

	v, err = FromTimecode("01:00:00:00", Rate2997)
	require.NoError(t, err)
	assert.True(t, v.Equal(MustNew(108000*1001, 30000)))
}
