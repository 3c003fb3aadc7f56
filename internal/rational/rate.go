package rational

import (
	"math/big"
	"strconv"
)

// FrameRate is frames per second as num/den, e.g. 30000/1001 for 29.97.
// The zero value means "unknown".
type FrameRate struct {
	num int64
	den int64
}

// Common rates.
var (
	Rate23976 = FrameRate{num: 24000, den: 1001}
	Rate24    = FrameRate{num: 24, den: 1}
	Rate25    = FrameRate{num: 25, den: 1}
	Rate2997  = FrameRate{num: 30000, den: 1001}
	Rate30    = FrameRate{num: 30, den: 1}
	Rate50    = FrameRate{num: 50, den: 1}
	Rate5994  = FrameRate{num: 60000, den: 1001}
	Rate60    = FrameRate{num: 60, den: 1}
)

// NewFrameRate constructs num/den frames per second; both must be positive.
func NewFrameRate(num, den int64) (FrameRate, error) {
	if num <= 0 || den <= 0 {
		return FrameRate{}, &ArithmeticError{Op: "rate", Reason: "frame rate must be positive"}
	}
	return FrameRate{num: num, den: den}, nil
}

// RateFromFrameDuration inverts a format frame duration ("1001/30000s").
func RateFromFrameDuration(fd TimeValue) (FrameRate, error) {
	if fd.Sign() <= 0 {
		return FrameRate{}, &ArithmeticError{Op: "rate", Reason: "frame duration must be positive"}
	}
	return FrameRate{num: fd.Den(), den: fd.num}, nil
}

// ParseRate reads "30000/1001", "25" or "29.97". Decimal NTSC spellings map to
// their exact 1001 rates.
func ParseRate(s string) (FrameRate, error) {
	switch s {
	case "23.976", "23.98":
		return Rate23976, nil
	case "29.97":
		return Rate2997, nil
	case "59.94":
		return Rate5994, nil
	}
	v, err := ParseNumber(s)
	if err != nil {
		return FrameRate{}, err
	}
	if v.Sign() <= 0 {
		return FrameRate{}, formatErr(s, "frame rate must be positive")
	}
	return FrameRate{num: v.num, den: v.Den()}, nil
}

// IsZero reports an unknown rate.
func (r FrameRate) IsZero() bool { return r.num == 0 }

// FrameDuration is the length of one frame.
func (r FrameRate) FrameDuration() TimeValue {
	return TimeValue{num: r.den, den: r.num}
}

// Timebase is the nominal integer rate used to label frames (30 for 29.97).
func (r FrameRate) Timebase() int64 {
	if r.IsZero() {
		return 0
	}
	return (r.num + r.den/2) / r.den
}

// NTSC reports a 1000/1001 pulled-down rate.
func (r FrameRate) NTSC() bool { return r.den == 1001 }

// SupportsDropFrame reports whether SMPTE drop-frame labelling applies.
func (r FrameRate) SupportsDropFrame() bool {
	tb := r.Timebase()
	return r.NTSC() && (tb == 30 || tb == 60)
}

// FrameTime is the start time of frame n.
func (r FrameRate) FrameTime(n int64) TimeValue {
	return r.FrameDuration().MulInt(n)
}

// FramesExact converts t to a frame count when t lands on a frame boundary.
func (r FrameRate) FramesExact(t TimeValue) (int64, bool) {
	if r.IsZero() {
		return 0, false
	}
	f := new(big.Rat).Mul(t.rat(), big.NewRat(r.num, r.den))
	if !f.IsInt() || !f.Num().IsInt64() {
		return 0, false
	}
	return f.Num().Int64(), true
}

// FramesFloor converts t to the index of the frame containing it.
func (r FrameRate) FramesFloor(t TimeValue) int64 {
	if r.IsZero() {
		return 0
	}
	n := new(big.Int).Mul(big.NewInt(t.num), big.NewInt(r.num))
	d := new(big.Int).Mul(big.NewInt(t.Den()), big.NewInt(r.den))
	q := new(big.Int).Div(n, d)
	return q.Int64()
}

// AlignFloor snaps t down to a frame boundary.
func (r FrameRate) AlignFloor(t TimeValue) TimeValue {
	return r.FrameTime(r.FramesFloor(t))
}

// FramesNearest converts t to the nearest frame index. Halfway points round
// up.
func (r FrameRate) FramesNearest(t TimeValue) int64 {
	if r.IsZero() {
		return 0
	}
	n := new(big.Int).Mul(big.NewInt(t.num), big.NewInt(r.num))
	d := new(big.Int).Mul(big.NewInt(t.Den()), big.NewInt(r.den))
	n.Add(n.Lsh(n, 1), d)
	q := new(big.Int).Div(n, d.Lsh(d, 1))
	return q.Int64()
}

// AlignNearest snaps t to the nearest frame boundary.
func (r FrameRate) AlignNearest(t TimeValue) TimeValue {
	return r.FrameTime(r.FramesNearest(t))
}

func (r FrameRate) String() string {
	if r.IsZero() {
		return "unknown"
	}
	if r.den == 1 {
		return strconv.FormatInt(r.num, 10)
	}
	return strconv.FormatInt(r.num, 10) + "/" + strconv.FormatInt(r.den, 10)
}

// Equal compares rates by value.
func (r FrameRate) Equal(o FrameRate) bool {
	if r.IsZero() || o.IsZero() {
		return r.IsZero() == o.IsZero()
	}
	return r.FrameDuration().Equal(o.FrameDuration())
}
