package rational

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// TimeValue is an exact number of seconds, num/den.
//
// den is stored as given (never silently reduced). A stored den of 0 means 1,
// which makes the zero value a valid 0/1.
type TimeValue struct {
	num int64
	den int64
}

// Zero is 0s.
var Zero = TimeValue{}

// New constructs num/den seconds. A negative denominator moves its sign onto
// the numerator; a zero denominator is an ArithmeticError.
func New(num, den int64) (TimeValue, error) {
	if den == 0 {
		return TimeValue{}, &ArithmeticError{Op: "new", Reason: "zero denominator"}
	}
	if den < 0 {
		if num == math.MinInt64 || den == math.MinInt64 {
			return TimeValue{}, &ArithmeticError{Op: "new", Reason: "value exceeds int64 range"}
		}
		num, den = -num, -den
	}
	return TimeValue{num: num, den: den}, nil
}

// MustNew is like New but panics on error.
// Use only for constants and tests.
func MustNew(num, den int64) TimeValue {
	t, err := New(num, den)
	if err != nil {
		panic(err)
	}
	return t
}

// Seconds returns n whole seconds.
func Seconds(n int64) TimeValue {
	return TimeValue{num: n, den: 1}
}

// Num returns the stored numerator.
func (t TimeValue) Num() int64 { return t.num }

// Den returns the stored denominator (always > 0).
func (t TimeValue) Den() int64 {
	if t.den == 0 {
		return 1
	}
	return t.den
}

// IsZero reports whether t equals zero.
func (t TimeValue) IsZero() bool { return t.num == 0 }

// Sign returns -1, 0 or +1.
func (t TimeValue) Sign() int {
	switch {
	case t.num < 0:
		return -1
	case t.num > 0:
		return 1
	}
	return 0
}

// Add returns t+u over the least common denominator.
func (t TimeValue) Add(u TimeValue) TimeValue {
	if r, ok := addFast(t.num, t.Den(), u.num, u.Den()); ok {
		return r
	}
	return fromBig(new(big.Rat).Add(t.rat(), u.rat()), "add")
}

// Sub returns t-u.
func (t TimeValue) Sub(u TimeValue) TimeValue {
	return t.Add(u.Neg())
}

// Neg returns -t.
func (t TimeValue) Neg() TimeValue {
	if t.num == math.MinInt64 {
		panic(&ArithmeticError{Op: "neg", Reason: "value exceeds int64 range"})
	}
	return TimeValue{num: -t.num, den: t.den}
}

// Abs returns |t|.
func (t TimeValue) Abs() TimeValue {
	if t.num < 0 {
		return t.Neg()
	}
	return t
}

// MulInt returns t*k keeping the denominator.
func (t TimeValue) MulInt(k int64) TimeValue {
	if n, ok := mul64(t.num, k); ok {
		return TimeValue{num: n, den: t.den}
	}
	return fromBig(new(big.Rat).Mul(t.rat(), new(big.Rat).SetInt64(k)), "mul")
}

// DivInt returns t/k. The numerator is divided when it can be; otherwise the
// denominator grows, so halving 1s yields 1/2s and halving 2s yields 1s.
func (t TimeValue) DivInt(k int64) TimeValue {
	if k == 0 {
		panic(&ArithmeticError{Op: "div", Reason: "division by zero"})
	}
	if k < 0 {
		return t.Neg().DivInt(-k)
	}
	if t.num%k == 0 {
		return TimeValue{num: t.num / k, den: t.den}
	}
	if d, ok := mul64(t.Den(), k); ok {
		return TimeValue{num: t.num, den: d}
	}
	return fromBig(new(big.Rat).Quo(t.rat(), new(big.Rat).SetInt64(k)), "div")
}

// Mul returns t*u, reduced.
func (t TimeValue) Mul(u TimeValue) TimeValue {
	return fromBig(new(big.Rat).Mul(t.rat(), u.rat()), "mul")
}

// Div returns t/u, reduced. Division by zero panics with an ArithmeticError.
func (t TimeValue) Div(u TimeValue) TimeValue {
	if u.IsZero() {
		panic(&ArithmeticError{Op: "div", Reason: "division by zero"})
	}
	return fromBig(new(big.Rat).Quo(t.rat(), u.rat()), "div")
}

// Cmp compares t and u and returns -1, 0 or +1.
func (t TimeValue) Cmp(u TimeValue) int {
	td, ud := t.Den(), u.Den()
	if td == ud {
		return cmp64(t.num, u.num)
	}
	a, ok1 := mul64(t.num, ud)
	b, ok2 := mul64(u.num, td)
	if ok1 && ok2 {
		return cmp64(a, b)
	}
	return t.rat().Cmp(u.rat())
}

// Equal reports value equality: 1/2s equals 2/4s.
func (t TimeValue) Equal(u TimeValue) bool { return t.Cmp(u) == 0 }

// Less reports t < u.
func (t TimeValue) Less(u TimeValue) bool { return t.Cmp(u) < 0 }

// Min returns the smaller of t and u (t on ties).
func Min(t, u TimeValue) TimeValue {
	if u.Less(t) {
		return u
	}
	return t
}

// Max returns the larger of t and u (t on ties).
func Max(t, u TimeValue) TimeValue {
	if t.Less(u) {
		return u
	}
	return t
}

// Simplify reduces t to lowest terms.
func (t TimeValue) Simplify() TimeValue {
	if t.num == 0 {
		return TimeValue{num: 0, den: 1}
	}
	g := gcd(t.num, t.Den())
	return TimeValue{num: t.num / g, den: t.Den() / g}
}

// WithDenominator re-expresses t over den when that is exact.
func (t TimeValue) WithDenominator(den int64) (TimeValue, bool) {
	if den <= 0 {
		return t, false
	}
	n, ok := mul64(t.num, den)
	if !ok || n%t.Den() != 0 {
		return t, false
	}
	return TimeValue{num: n / t.Den(), den: den}, true
}

// Float64 converts to seconds for display. Never use it for timeline logic.
func (t TimeValue) Float64() float64 {
	f, _ := t.rat().Float64()
	return f
}

// String renders the document form: "N/Ds", "Ns" when the denominator is 1,
// "0s" for zero.
func (t TimeValue) String() string {
	if t.num == 0 {
		return "0s"
	}
	if t.Den() == 1 {
		return strconv.FormatInt(t.num, 10) + "s"
	}
	return strconv.FormatInt(t.num, 10) + "/" + strconv.FormatInt(t.Den(), 10) + "s"
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeValue) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseAt with no
// frame rate, so "12s", "1001/30000s", "1.5s" and plain "1.5" are accepted.
func (t *TimeValue) UnmarshalText(b []byte) error {
	v, err := ParseAt(string(b), FrameRate{})
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Parse reads the strict document forms "N/Ds", "Ns" and exact decimal
// seconds such as "1.5s". Whitespace is not trimmed.
func Parse(s string) (TimeValue, error) {
	if !strings.HasSuffix(s, "s") {
		return TimeValue{}, formatErr(s, "missing 's' suffix")
	}
	return parseNumber(s, s[:len(s)-1])
}

// ParseNumber reads a dimensionless rational: "2", "-3/4", "0.25".
// Speed factors use it.
func ParseNumber(s string) (TimeValue, error) {
	return parseNumber(s, s)
}

func parseNumber(input, body string) (TimeValue, error) {
	if body == "" {
		return TimeValue{}, formatErr(input, "empty value")
	}
	if i := strings.IndexByte(body, '/'); i >= 0 {
		num, err := parseInt(input, body[:i])
		if err != nil {
			return TimeValue{}, err
		}
		den, err := parseInt(input, body[i+1:])
		if err != nil {
			return TimeValue{}, err
		}
		if den == 0 {
			return TimeValue{}, &ArithmeticError{Op: "parse", Reason: "zero denominator in " + strconv.Quote(input)}
		}
		if den < 0 {
			return TimeValue{}, formatErr(input, "negative denominator")
		}
		return TimeValue{num: num, den: den}, nil
	}
	if strings.IndexByte(body, '.') >= 0 {
		return parseDecimal(input, body)
	}
	n, err := parseInt(input, body)
	if err != nil {
		return TimeValue{}, err
	}
	return TimeValue{num: n, den: 1}, nil
}

func parseInt(input, s string) (int64, error) {
	if s == "" || s[0] == '+' {
		return 0, formatErr(input, "malformed integer")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, formatErr(input, "malformed integer")
	}
	return n, nil
}

// parseDecimal converts "12.345" exactly to 12345/1000, then reduces.
func parseDecimal(input, s string) (TimeValue, error) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return TimeValue{}, formatErr(input, "malformed decimal")
	}
	if len(frac) > 18 {
		return TimeValue{}, formatErr(input, "too many decimal places")
	}
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return TimeValue{}, formatErr(input, "malformed decimal")
			}
		}
	}
	den := int64(1)
	for range frac {
		den *= 10
	}
	var w, f int64
	var err error
	if whole != "" {
		if w, err = strconv.ParseInt(whole, 10, 64); err != nil {
			return TimeValue{}, formatErr(input, "malformed decimal")
		}
	}
	if frac != "" {
		if f, err = strconv.ParseInt(frac, 10, 64); err != nil {
			return TimeValue{}, formatErr(input, "malformed decimal")
		}
	}
	n, ok := mul64(w, den)
	if ok {
		n, ok = add64(n, f)
	}
	if !ok {
		return TimeValue{}, formatErr(input, "value exceeds int64 range")
	}
	if neg {
		n = -n
	}
	return TimeValue{num: n, den: den}.Simplify(), nil
}

// ParseAt reads user-supplied times. Besides the forms Parse accepts it takes
// timecode ("01:00:10:12", ";" for drop frame) and frame counts ("48f"),
// both of which need a rate, and bare numbers as seconds ("10", "2.5").
func ParseAt(s string, rate FrameRate) (TimeValue, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return TimeValue{}, formatErr(s, "empty value")
	case strings.ContainsAny(s, ":;"):
		if rate.IsZero() {
			return TimeValue{}, formatErr(s, "timecode needs a frame rate")
		}
		return FromTimecode(s, rate)
	case strings.HasSuffix(s, "f"):
		if rate.IsZero() {
			return TimeValue{}, formatErr(s, "frame count needs a frame rate")
		}
		n, err := parseInt(s, s[:len(s)-1])
		if err != nil {
			return TimeValue{}, err
		}
		return rate.FrameTime(n), nil
	case strings.HasSuffix(s, "s"):
		return Parse(s)
	}
	return ParseNumber(s)
}

func (t TimeValue) rat() *big.Rat {
	return new(big.Rat).SetFrac(big.NewInt(t.num), big.NewInt(t.Den()))
}

func fromBig(r *big.Rat, op string) TimeValue {
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		panic(&ArithmeticError{Op: op, Reason: "result exceeds int64 range"})
	}
	return TimeValue{num: r.Num().Int64(), den: r.Denom().Int64()}
}

func addFast(an, ad, bn, bd int64) (TimeValue, bool) {
	if ad == bd {
		n, ok := add64(an, bn)
		return TimeValue{num: n, den: ad}, ok
	}
	g := gcd(ad, bd)
	l, ok := mul64(ad/g, bd)
	if !ok {
		return TimeValue{}, false
	}
	x, ok1 := mul64(an, l/ad)
	y, ok2 := mul64(bn, l/bd)
	if !ok1 || !ok2 {
		return TimeValue{}, false
	}
	n, ok := add64(x, y)
	return TimeValue{num: n, den: l}, ok
}

func mul64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}

func add64(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) == (b > 0) {
		return c, true
	}
	return 0, false
}

func cmp64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}
