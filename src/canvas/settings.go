package canvas

import (
	"time"

	"screen-capture-tool/src/annotation"
	"screen-capture-tool/src/magnifier"
	"screen-capture-tool/src/render"
)

// DefaultSessionTimeout cancels a capture session left idle this long.
const DefaultSessionTimeout = 5 * time.Minute

// Settings is the read-only snapshot an Engine runs with.
type Settings struct {
	Palette        annotation.Palette
	Overlay        render.OverlayStyle
	MagnifierSize  int
	MagnifierZoom  int
	ShowMagnifier  bool
	IncludeCursor  bool
	SessionTimeout time.Duration
}

// DefaultSettings returns the stock settings.
func DefaultSettings() Settings {
	return Settings{
		Palette:        annotation.DefaultPalette(),
		Overlay:        render.DefaultOverlayStyle(),
		MagnifierSize:  magnifier.DefaultSize,
		MagnifierZoom:  magnifier.DefaultZoom,
		SessionTimeout: DefaultSessionTimeout,
	}
}
