package rational

import (
	"fmt"
	"strconv"
	"strings"
)

// Timecode is an hours:minutes:seconds:frames label at some frame rate.
type Timecode struct {
	Hours     int64
	Minutes   int64
	Seconds   int64
	Frames    int64
	DropFrame bool
}

// ParseTimecode reads "HH:MM:SS:FF". A ';' anywhere marks drop frame.
func ParseTimecode(s string) (Timecode, error) {
	drop := strings.Contains(s, ";")
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == ';' })
	if len(parts) != 4 {
		return Timecode{}, formatErr(s, "timecode needs four fields")
	}
	var f [4]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return Timecode{}, formatErr(s, "timecode fields must be non-negative integers")
		}
		f[i] = n
	}
	return Timecode{Hours: f[0], Minutes: f[1], Seconds: f[2], Frames: f[3], DropFrame: drop}, nil
}

func (tc Timecode) String() string {
	sep := ":"
	if tc.DropFrame {
		sep = ";"
	}
	return fmt.Sprintf("%02d:%02d:%02d%s%02d", tc.Hours, tc.Minutes, tc.Seconds, sep, tc.Frames)
}

// FrameNumber counts frames from 00:00:00:00 at rate.
func (tc Timecode) FrameNumber(rate FrameRate) (int64, error) {
	tb := rate.Timebase()
	if tb <= 0 {
		return 0, formatErr(tc.String(), "unknown frame rate")
	}
	if tc.Minutes > 59 || tc.Seconds > 59 || tc.Frames >= tb {
		return 0, formatErr(tc.String(), "field out of range for %d fps", tb)
	}
	total := ((tc.Hours*60+tc.Minutes)*60+tc.Seconds)*tb + tc.Frames
	if !tc.DropFrame {
		return total, nil
	}
	if !rate.SupportsDropFrame() {
		return 0, formatErr(tc.String(), "drop frame needs 29.97 or 59.94 fps")
	}
	d := tb / 15
	if tc.Seconds == 0 && tc.Minutes%10 != 0 && tc.Frames < d {
		return 0, formatErr(tc.String(), "frame label is dropped")
	}
	minutes := tc.Hours*60 + tc.Minutes
	return total - d*(minutes-minutes/10), nil
}

// Time converts the label to the start time of its frame.
func (tc Timecode) Time(rate FrameRate) (TimeValue, error) {
	n, err := tc.FrameNumber(rate)
	if err != nil {
		return TimeValue{}, err
	}
	return rate.FrameTime(n), nil
}

// FromTimecode parses s and converts it at rate.
func FromTimecode(s string, rate FrameRate) (TimeValue, error) {
	tc, err := ParseTimecode(s)
	if err != nil {
		return TimeValue{}, err
	}
	return tc.Time(rate)
}

// TimecodeOf labels the frame containing t. Negative times are rejected.
func TimecodeOf(t TimeValue, rate FrameRate, drop bool) (Timecode, error) {
	tb := rate.Timebase()
	if tb <= 0 {
		return Timecode{}, formatErr(t.String(), "unknown frame rate")
	}
	if t.Sign() < 0 {
		return Timecode{}, formatErr(t.String(), "negative time has no timecode")
	}
	if drop && !rate.SupportsDropFrame() {
		return Timecode{}, formatErr(t.String(), "drop frame needs 29.97 or 59.94 fps")
	}
	n := rate.FramesFloor(t)
	if drop {
		d := tb / 15
		perMinute := tb*60 - d
		perTen := tb*600 - d*9
		tens, rem := n/perTen, n%perTen
		if rem > d {
			n += d*9*tens + d*((rem-d)/perMinute)
		} else {
			n += d * 9 * tens
		}
	}
	return Timecode{
		Hours:     n / (tb * 3600),
		Minutes:   (n / (tb * 60)) % 60,
		Seconds:   (n / tb) % 60,
		Frames:    n % tb,
		DropFrame: drop,
	}, nil
}
