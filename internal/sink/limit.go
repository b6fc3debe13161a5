package sink

import "math"

// Limit caps LED current before bytes reach the strip. Two stages run in
// order: a per-LED white cap on the channel sum, then a global current budget
// that starts compressing the frame at Knee*BudgetMA and keeps it under
// BudgetMA. Frames are only ever dimmed. Zero fields take the defaults below; a zero BudgetMA
// disables the second stage.
type Limit struct {
	WhiteCap float64 `yaml:"white_cap"` // max R+G+B per LED, 0..3 in full scale units
	ChanMA   float64 `yaml:"chan_ma"`   // mA per channel at full scale
	BudgetMA float64 `yaml:"budget_ma"`
	Knee     float64 `yaml:"knee"`
}

const (
	defaultWhiteCap = 3.0
	defaultChanMA   = 20.0 // WS2812
	defaultKnee     = 0.9
)

// Enabled reports whether l would ever change a frame.
func (l Limit) Enabled() bool {
	return (l.WhiteCap > 0 && l.WhiteCap < defaultWhiteCap) || l.BudgetMA > 0
}

func (l Limit) withDefaults() Limit {
	if l.WhiteCap <= 0 {
		l.WhiteCap = defaultWhiteCap
	}
	if l.ChanMA <= 0 {
		l.ChanMA = defaultChanMA
	}
	if l.Knee <= 0 || l.Knee >= 1 {
		l.Knee = defaultKnee
	}
	return l
}

// CurrentMA estimates the draw of a frame of 8-bit triples.
func (l Limit) CurrentMA(frame []byte) float64 {
	l = l.withDefaults()
	var sum float64
	for _, b := range frame {
		sum += float64(b)
	}
	return sum / 255 * l.ChanMA
}

// Apply writes the limited frame into dst, which must be len(src).
// Channel order does not matter; only sums are used.
func (l Limit) Apply(dst, src []byte) {
	l = l.withDefaults()
	capSum := l.WhiteCap * 255

	lin := make([]float64, len(src))
	var total float64
	for i := 0; i+2 < len(src); i += 3 {
		r, g, b := float64(src[i]), float64(src[i+1]), float64(src[i+2])
		if s := r + g + b; s > capSum && s > 0 {
			k := capSum / s
			r, g, b = r*k, g*k, b*k
		}
		lin[i], lin[i+1], lin[i+2] = r, g, b
		total += r + g + b
	}
	total = total / 255 * l.ChanMA

	scale := 1.0
	if l.BudgetMA > 0 && total > 0 {
		scale = l.knee(total) / total
	}
	for i, v := range lin {
		v *= scale
		if v > 255 {
			v = 255
		}
		dst[i] = byte(v)
	}
}

// knee maps a frame current to the current allowed through. Below
// Knee*BudgetMA it is the identity; above, it bends smoothly toward BudgetMA
// and never reaches it, so the result is always <= total.
func (l Limit) knee(total float64) float64 {
	k := l.Knee * l.BudgetMA
	if total <= k {
		return total
	}
	room := l.BudgetMA - k
	return k + room*(1-math.Exp(-(total-k)/room))
}

// Limited wraps a sink with a current limiter.
type Limited struct {
	Next  Sink
	Limit Limit

	buf []byte
}

func (s *Limited) Write(frame []byte) error {
	if cap(s.buf) < len(frame) {
		s.buf = make([]byte, len(frame))
	}
	s.buf = s.buf[:len(frame)]
	s.Limit.Apply(s.buf, frame)
	return s.Next.Write(s.buf)
}

func (s *Limited) Close() error { return s.Next.Close() }
