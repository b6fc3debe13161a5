package render

import "github.com/coreman2200/neopixelsim/internal/pixel"

// Kind tags a Command.
type Kind int

const (
	KindSetLocations Kind = iota + 1
	KindSetPixels
	KindExit
)

func (k Kind) String() string {
	switch k {
	case KindSetLocations:
		return "set-locations"
	case KindSetPixels:
		return "set-pixels"
	case KindExit:
		return "exit"
	}
	return "unknown"
}

// Command is the only value that crosses from the driver into the render
// loop. Payload slices are owned by the command.
type Command struct {
	Kind      Kind
	Locations []pixel.Vec3
	Pixels    []pixel.Color
}

// LocationsCommand replaces the renderer's location cache with a copy of locs.
func LocationsCommand(locs []pixel.Vec3) Command {
	cp := make([]pixel.Vec3, len(locs))
	copy(cp, locs)
	return Command{Kind: KindSetLocations, Locations: cp}
}

// PixelsCommand replaces the renderer's color cache with a copy of colors.
func PixelsCommand(colors []pixel.Color) Command {
	cp := make([]pixel.Color, len(colors))
	copy(cp, colors)
	return Command{Kind: KindSetPixels, Pixels: cp}
}

func ExitCommand() Command { return Command{Kind: KindExit} }
