package sink

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/coreman2200/neopixelsim/internal/pixel"
	"github.com/coreman2200/neopixelsim/internal/simerr"
)

// DefaultNRZHz is the SPI clock that makes nrzled emit WS2812 timing. It is
// the only clock nrzled accepts.
const DefaultNRZHz = 2500 * physic.KiloHertz

// NRZ drives WS2812 style strips through an SPI port.
type NRZ struct {
	port  spi.PortCloser
	dev   *nrzled.Dev
	order pixel.ChannelOrder
	count int
}

// OpenNRZ initializes the host and opens the named SPI port ("" picks the first).
func OpenNRZ(name string, count int, hz physic.Frequency, order pixel.ChannelOrder) (*NRZ, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", name, err)
	}
	n, err := NewNRZ(p, count, hz, order)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return n, nil
}

// NewNRZ wraps an already open port. hz must be 0 or DefaultNRZHz.
func NewNRZ(p spi.PortCloser, count int, hz physic.Frequency, order pixel.ChannelOrder) (*NRZ, error) {
	if hz == 0 {
		hz = DefaultNRZHz
	}
	if hz != DefaultNRZHz {
		return nil, simerr.Configf("nrz clock %s unsupported, want %s", hz, DefaultNRZHz)
	}
	dev, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: count, Channels: 3, Freq: hz})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &NRZ{port: p, dev: dev, order: order, count: count}, nil
}

// Write encodes the frame. nrzled reorders RGB to the wire order itself.
func (n *NRZ) Write(rgb []byte) error {
	if len(rgb) != n.count*3 {
		return fmt.Errorf("nrz: frame is %d bytes, want %d", len(rgb), n.count*3)
	}
	if _, err := n.dev.Write(toRGB(n.order, rgb)); err != nil {
		return fmt.Errorf("nrz write: %w", err)
	}
	return nil
}

// Close blanks the strip and releases the port.
func (n *NRZ) Close() error {
	herr := n.dev.Halt()
	if err := n.port.Close(); err != nil {
		return err
	}
	return herr
}

func (n *NRZ) String() string { return n.dev.String() }
