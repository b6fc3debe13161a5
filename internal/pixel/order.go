package pixel

import (
	"strings"

	"github.com/coreman2200/neopixelsim/internal/simerr"
)

// ChannelMap is a permutation of {0,1,2}: slot k of the stored color holds
// channel m[k] of the submitted color.
type ChannelMap [3]int

// Apply permutes a submitted triple into storage order.
func (m ChannelMap) Apply(c [3]float64) [3]float64 {
	var out [3]float64
	for k := 0; k < 3; k++ {
		out[k] = c[m[k]]
	}
	return out
}

// Invert recovers the submitted triple from storage order.
func (m ChannelMap) Invert(s [3]float64) [3]float64 {
	var out [3]float64
	for k := 0; k < 3; k++ {
		out[m[k]] = s[k]
	}
	return out
}

// ChannelOrder names a device channel layout. The zero value is invalid.
type ChannelOrder struct {
	name string
	m    ChannelMap
}

var (
	RGB = ChannelOrder{name: "RGB", m: ChannelMap{0, 1, 2}}
	// GRB devices swap the first two slots, as WS2812 strips do.
	GRB = ChannelOrder{name: "GRB", m: ChannelMap{1, 0, 2}}
)

// ParseOrder accepts "RGB" or "GRB" in any case.
func ParseOrder(s string) (ChannelOrder, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RGB":
		return RGB, nil
	case "GRB":
		return GRB, nil
	}
	return ChannelOrder{}, simerr.Configf("unknown channel order %q (want RGB or GRB)", s)
}

func (o ChannelOrder) String() string { return o.name }

func (o ChannelOrder) Map() ChannelMap { return o.m }

func (o ChannelOrder) Valid() bool { return o == RGB || o == GRB }
