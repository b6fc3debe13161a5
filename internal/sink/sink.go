// Package sink carries presented frames to real or pretend LED hardware.
package sink

import (
	"github.com/coreman2200/neopixelsim/internal/pixel"
	"github.com/coreman2200/neopixelsim/internal/simerr"
)

// Sink abstracts an LED output.
type Sink interface {
	// Write pushes one frame, 3 bytes per LED in device channel order.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Kind names a sink in configuration.
type Kind string

const (
	KindNone Kind = "none"
	KindLog  Kind = "log"
	KindSPI  Kind = "spi"
	KindMQTT Kind = "mqtt"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "":
		return KindNone, nil
	case KindNone, KindLog, KindSPI, KindMQTT:
		return k, nil
	}
	return "", simerr.Configf("unknown sink %q", s)
}

// Null drops every frame.
type Null struct{}

func (Null) Write([]byte) error { return nil }
func (Null) Close() error       { return nil }

// toRGB undoes the device channel order so that encoders which expect plain
// RGB triples (and reorder themselves) see what the animation submitted.
func toRGB(order pixel.ChannelOrder, dev []byte) []byte {
	m := order.Map()
	out := make([]byte, len(dev))
	for i := 0; i+2 < len(dev); i += 3 {
		var s [3]float64
		s[0], s[1], s[2] = float64(dev[i]), float64(dev[i+1]), float64(dev[i+2])
		c := m.Invert(s)
		out[i], out[i+1], out[i+2] = byte(c[0]), byte(c[1]), byte(c[2])
	}
	return out
}
