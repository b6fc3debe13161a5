package pixel

import "github.com/coreman2200/neopixelsim/internal/simerr"

// Buffer owns the current frame: one normalized color per LED in device
// channel order, plus the LED positions. Its length never changes.
// Buffer is not safe for concurrent use; the neopixel façade serializes access.
type Buffer struct {
	order  ChannelOrder
	stored []Color

	locs      []Vec3
	locsSet   bool
	locsDirty bool
}

// NewBuffer allocates count black pixels for a device with the given order.
func NewBuffer(count int, order ChannelOrder) (*Buffer, error) {
	if !order.Valid() {
		return nil, simerr.Configf("unrecognized channel order %q", order.String())
	}
	if count <= 0 {
		return nil, simerr.Configf("invalid pixel count: %d", count)
	}
	return &Buffer{
		order:  order,
		stored: make([]Color, count),
	}, nil
}

func (b *Buffer) Len() int { return len(b.stored) }

func (b *Buffer) Order() ChannelOrder { return b.order }

// Set stores c (0..255 per channel) at index i, permuted into device order.
// Values outside 0..255 are kept as-is and clamped only when emitted.
func (b *Buffer) Set(i int, c Color) error {
	if i < 0 || i >= len(b.stored) {
		return simerr.Indexf("pixel %d out of range [0,%d)", i, len(b.stored))
	}
	b.stored[i] = normalize(fromChannels(b.order.m.Apply(c.channels())))
	return nil
}

// At returns the stored, normalized color at i in device order.
func (b *Buffer) At(i int) (Color, error) {
	if i < 0 || i >= len(b.stored) {
		return Color{}, simerr.Indexf("pixel %d out of range [0,%d)", i, len(b.stored))
	}
	return b.stored[i], nil
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c Color) {
	v := normalize(fromChannels(b.order.m.Apply(c.channels())))
	for i := range b.stored {
		b.stored[i] = v
	}
}

// Stored copies the normalized colors in device order. This is what a
// visualizer interprets as RGB.
func (b *Buffer) Stored() []Color {
	out := make([]Color, len(b.stored))
	copy(out, b.stored)
	return out
}

// Submitted copies the normalized colors back in the order the caller wrote them.
func (b *Buffer) Submitted() []Color {
	out := make([]Color, len(b.stored))
	for i, c := range b.stored {
		out[i] = fromChannels(b.order.m.Invert(c.channels()))
	}
	return out
}

// Bytes emits 3 bytes per pixel in device order, clamped and truncated.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 0, len(b.stored)*3)
	for _, c := range b.stored {
		out = append(out, byte(Channel255(c.R)), byte(Channel255(c.G)), byte(Channel255(c.B)))
	}
	return out
}

// SetLocations replaces the whole location set. The count must match the
// pixel count and every coordinate must be finite; on failure nothing changes.
func (b *Buffer) SetLocations(coords []Vec3) error {
	if len(coords) != len(b.stored) {
		return simerr.Validationf("the number of coordinates must equal the number of pixels: expected %d got %d",
			len(b.stored), len(coords))
	}
	for i, c := range coords {
		if !c.Finite() {
			return simerr.Validationf("coordinate %d is not a finite 3-tuple: %+v", i, c)
		}
	}
	locs := make([]Vec3, len(coords))
	copy(locs, coords)
	b.locs = locs
	b.locsSet = true
	b.locsDirty = true
	return nil
}

// SetLocationRows validates untyped rows (each must hold exactly three numbers)
// before handing them to SetLocations.
func (b *Buffer) SetLocationRows(rows [][]float64) error {
	coords := make([]Vec3, len(rows))
	for i, r := range rows {
		if len(r) != 3 {
			return simerr.Validationf("coordinate %d has %d components, want 3", i, len(r))
		}
		coords[i] = Vec3{X: r[0], Y: r[1], Z: r[2]}
	}
	return b.SetLocations(coords)
}

// Locations copies the current location set; nil until one has been set.
func (b *Buffer) Locations() []Vec3 {
	if !b.locsSet {
		return nil
	}
	out := make([]Vec3, len(b.locs))
	copy(out, b.locs)
	return out
}

func (b *Buffer) HasLocations() bool { return b.locsSet }

// TakeLocationsDirty reports whether locations changed since the last call
// and clears the flag.
func (b *Buffer) TakeLocationsDirty() bool {
	d := b.locsDirty
	b.locsDirty = false
	return d
}

func normalize(c Color) Color {
	return Color{R: c.R / 255, G: c.G / 255, B: c.B / 255}
}
