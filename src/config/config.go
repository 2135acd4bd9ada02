package config

import (
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"screen-capture-tool/src/annotation"
	"screen-capture-tool/src/canvas"
)

const (
	// ConfigPathEnvVar points at a settings file when none sits next to the executable.
	ConfigPathEnvVar = "SCREEN_CAPTURE_CONFIG"
	configFileName   = ".env"

	DefaultHotkey = "Ctrl+Alt+S"
)

// Keys of the settings file. Environment variables with the same names
// take precedence over the file.
const (
	KeyOverlayAlpha      = "OVERLAY_ALPHA"
	KeyOverlayColor      = "OVERLAY_COLOR"
	KeyOverlayStipple    = "OVERLAY_STIPPLE"
	KeySelectionColor    = "SELECTION_COLOR"
	KeySelectionWidth    = "SELECTION_WIDTH"
	KeyLineColor         = "LINE_COLOR"
	KeyArrowColor        = "ARROW_COLOR"
	KeyRectColor         = "RECT_COLOR"
	KeyEllipseColor      = "ELLIPSE_COLOR"
	KeyTextColor         = "TEXT_COLOR"
	KeyStrokeWidth       = "STROKE_WIDTH"
	KeyTextSize          = "TEXT_SIZE"
	KeyMagnifierSize     = "MAGNIFIER_SIZE"
	KeyMagnifierZoom     = "MAGNIFIER_ZOOM"
	KeyShowMagnifier     = "SHOW_MAGNIFIER"
	KeyIncludeCursor     = "INCLUDE_CURSOR"
	KeyAutoSave          = "AUTO_SAVE"
	KeyCopyToClipboard   = "COPY_TO_CLIPBOARD"
	KeyDefaultFilename   = "DEFAULT_FILENAME"
	KeySaveDir           = "SAVE_DIR"
	KeyHotkey            = "HOTKEY"
	KeySessionTimeout    = "SESSION_TIMEOUT_SEC"
	KeyEnableFileLogging = "ENABLE_FILE_LOGGING"
	KeyPortStart         = "SCREEN_CAPTURE_PORT_START"
	KeyPortEnd           = "SCREEN_CAPTURE_PORT_END"
)

type LoadOptions struct {
	ConfigPathOverride string
	HotkeyOverride     string
	SaveDirOverride    string
}

type Config struct {
	// Path is the settings file the values came from, empty when none was found.
	Path string

	OverlayAlpha   float64
	OverlayColor   string
	OverlayStipple bool
	SelectionColor string
	SelectionWidth int

	LineColor    string
	ArrowColor   string
	RectColor    string
	EllipseColor string
	TextColor    string
	StrokeWidth  int
	TextSize     float64

	MagnifierSize int
	MagnifierZoom int
	ShowMagnifier bool
	IncludeCursor bool

	AutoSave        bool
	CopyToClipboard bool
	DefaultFilename string
	SaveDir         string

	Hotkey            string
	SessionTimeoutSec int
	EnableFileLogging bool

	// PortStart and PortEnd bound the loopback ports the resident listens
	// on and delegating clients scan, inclusive.
	PortStart int
	PortEnd   int
}

// Default returns the stock configuration.
func Default() *Config {
	p := annotation.DefaultPalette()
	o := canvas.DefaultSettings().Overlay
	return &Config{
		OverlayAlpha:      o.DimAlpha,
		OverlayColor:      annotation.FormatColor(o.DimColor),
		OverlayStipple:    o.Stipple,
		SelectionColor:    annotation.FormatColor(o.SelectionColor),
		SelectionWidth:    o.SelectionWidth,
		LineColor:         annotation.FormatColor(p.Style(annotation.ToolLine).Color),
		ArrowColor:        annotation.FormatColor(p.Style(annotation.ToolArrow).Color),
		RectColor:         annotation.FormatColor(p.Style(annotation.ToolRect).Color),
		EllipseColor:      annotation.FormatColor(p.Style(annotation.ToolEllipse).Color),
		TextColor:         annotation.FormatColor(p.Style(annotation.ToolText).Color),
		StrokeWidth:       p.Style(annotation.ToolLine).Width,
		TextSize:          p.Font.Size,
		MagnifierSize:     150,
		MagnifierZoom:     3,
		AutoSave:          true,
		DefaultFilename:   "screenshot",
		Hotkey:            DefaultHotkey,
		SessionTimeoutSec: int(canvas.DefaultSessionTimeout / time.Second),
		PortStart:         49600,
		PortEnd:           49610,
	}
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Configuration sources in priority order:
	// 1) explicit override path, else .env next to the executable,
	//    else the file named by SCREEN_CAPTURE_CONFIG
	// 2) environment variables override file values
	// 3) LoadOptions override both
	path := strings.TrimSpace(opts.ConfigPathOverride)
	if path == "" {
		path = resolveConfigPath()
	}
	values := map[string]string{}
	if path != "" {
		read, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		values = read
	}

	cfg := fromValues(values)
	cfg.Path = path
	if hk := strings.TrimSpace(opts.HotkeyOverride); hk != "" {
		cfg.Hotkey = hk
	}
	if dir := strings.TrimSpace(opts.SaveDirOverride); dir != "" {
		cfg.SaveDir = dir
	}
	return cfg, nil
}

func fromValues(values map[string]string) *Config {
	get := func(key string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return strings.TrimSpace(values[key])
	}
	cfg := Default()
	cfg.OverlayAlpha = getFloat(get(KeyOverlayAlpha), cfg.OverlayAlpha, 0, 1)
	cfg.OverlayColor = getColor(get(KeyOverlayColor), cfg.OverlayColor)
	cfg.OverlayStipple = getBool(get(KeyOverlayStipple), cfg.OverlayStipple)
	cfg.SelectionColor = getColor(get(KeySelectionColor), cfg.SelectionColor)
	cfg.SelectionWidth = getInt(get(KeySelectionWidth), cfg.SelectionWidth, 1, 20)
	cfg.LineColor = getColor(get(KeyLineColor), cfg.LineColor)
	cfg.ArrowColor = getColor(get(KeyArrowColor), cfg.ArrowColor)
	cfg.RectColor = getColor(get(KeyRectColor), cfg.RectColor)
	cfg.EllipseColor = getColor(get(KeyEllipseColor), cfg.EllipseColor)
	cfg.TextColor = getColor(get(KeyTextColor), cfg.TextColor)
	cfg.StrokeWidth = getInt(get(KeyStrokeWidth), cfg.StrokeWidth, 1, 50)
	cfg.TextSize = getFloat(get(KeyTextSize), cfg.TextSize, 6, 200)
	cfg.MagnifierSize = getInt(get(KeyMagnifierSize), cfg.MagnifierSize, 50, 600)
	cfg.MagnifierZoom = getInt(get(KeyMagnifierZoom), cfg.MagnifierZoom, 1, 16)
	cfg.ShowMagnifier = getBool(get(KeyShowMagnifier), cfg.ShowMagnifier)
	cfg.IncludeCursor = getBool(get(KeyIncludeCursor), cfg.IncludeCursor)
	cfg.AutoSave = getBool(get(KeyAutoSave), cfg.AutoSave)
	cfg.CopyToClipboard = getBool(get(KeyCopyToClipboard), cfg.CopyToClipboard)
	cfg.DefaultFilename = getWithDefault(get(KeyDefaultFilename), cfg.DefaultFilename)
	cfg.SaveDir = get(KeySaveDir)
	cfg.Hotkey = getWithDefault(get(KeyHotkey), cfg.Hotkey)
	cfg.SessionTimeoutSec = getInt(get(KeySessionTimeout), cfg.SessionTimeoutSec, 0, 24*60*60)
	cfg.EnableFileLogging = strings.ToLower(get(KeyEnableFileLogging)) == "true"
	cfg.PortStart = getInt(get(KeyPortStart), cfg.PortStart, 1, 65535)
	cfg.PortEnd = getInt(get(KeyPortEnd), cfg.PortEnd, 1, 65535)
	return cfg
}

func resolveConfigPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), configFileName)
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(ConfigPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

// DefaultPath is where Save writes when the config was not loaded from a file.
func DefaultPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return configFileName
	}
	return filepath.Join(filepath.Dir(execPath), configFileName)
}

// Values flattens c into the key/value record stored on disk.
func (c *Config) Values() map[string]string {
	return map[string]string{
		KeyOverlayAlpha:      strconv.FormatFloat(c.OverlayAlpha, 'f', -1, 64),
		KeyOverlayColor:      c.OverlayColor,
		KeyOverlayStipple:    strconv.FormatBool(c.OverlayStipple),
		KeySelectionColor:    c.SelectionColor,
		KeySelectionWidth:    strconv.Itoa(c.SelectionWidth),
		KeyLineColor:         c.LineColor,
		KeyArrowColor:        c.ArrowColor,
		KeyRectColor:         c.RectColor,
		KeyEllipseColor:      c.EllipseColor,
		KeyTextColor:         c.TextColor,
		KeyStrokeWidth:       strconv.Itoa(c.StrokeWidth),
		KeyTextSize:          strconv.FormatFloat(c.TextSize, 'f', -1, 64),
		KeyMagnifierSize:     strconv.Itoa(c.MagnifierSize),
		KeyMagnifierZoom:     strconv.Itoa(c.MagnifierZoom),
		KeyShowMagnifier:     strconv.FormatBool(c.ShowMagnifier),
		KeyIncludeCursor:     strconv.FormatBool(c.IncludeCursor),
		KeyAutoSave:          strconv.FormatBool(c.AutoSave),
		KeyCopyToClipboard:   strconv.FormatBool(c.CopyToClipboard),
		KeyDefaultFilename:   c.DefaultFilename,
		KeySaveDir:           c.SaveDir,
		KeyHotkey:            c.Hotkey,
		KeySessionTimeout:    strconv.Itoa(c.SessionTimeoutSec),
		KeyEnableFileLogging: strconv.FormatBool(c.EnableFileLogging),
		KeyPortStart:         strconv.Itoa(c.PortStart),
		KeyPortEnd:           strconv.Itoa(c.PortEnd),
	}
}

// Save writes c to path, or to c.Path, or next to the executable.
func Save(path string, c *Config) error {
	if path == "" {
		path = c.Path
	}
	if path == "" {
		path = DefaultPath()
	}
	if err := godotenv.Write(c.Values(), path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	c.Path = path
	return nil
}

// Snapshot converts c into the read-only settings a capture session runs with.
func (c *Config) Snapshot() canvas.Settings {
	s := canvas.DefaultSettings()

	s.Overlay.DimAlpha = c.OverlayAlpha
	s.Overlay.DimColor = colorOr(c.OverlayColor, s.Overlay.DimColor)
	s.Overlay.Stipple = c.OverlayStipple
	s.Overlay.SelectionColor = colorOr(c.SelectionColor, s.Overlay.SelectionColor)
	s.Overlay.SelectionWidth = c.SelectionWidth

	styles := map[annotation.Tool]string{
		annotation.ToolLine:    c.LineColor,
		annotation.ToolArrow:   c.ArrowColor,
		annotation.ToolRect:    c.RectColor,
		annotation.ToolEllipse: c.EllipseColor,
		annotation.ToolText:    c.TextColor,
	}
	palette := annotation.Palette{Styles: map[annotation.Tool]annotation.Style{}, Font: s.Palette.Font}
	for tool, hex := range styles {
		palette.Styles[tool] = annotation.Style{
			Color: colorOr(hex, s.Palette.Style(tool).Color),
			Width: c.StrokeWidth,
		}
	}
	palette.Font.Size = c.TextSize
	s.Palette = palette

	s.MagnifierSize = c.MagnifierSize
	s.MagnifierZoom = c.MagnifierZoom
	s.ShowMagnifier = c.ShowMagnifier
	s.IncludeCursor = c.IncludeCursor
	s.SessionTimeout = time.Duration(c.SessionTimeoutSec) * time.Second
	return s
}

func colorOr(hex string, fallback color.RGBA) color.RGBA {
	c, err := annotation.ParseColor(hex)
	if err != nil {
		return fallback
	}
	return c
}

func getWithDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

func getColor(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	c, err := annotation.ParseColor(value)
	if err != nil {
		log.Printf("config: ignoring %v", err)
		return defaultValue
	}
	return annotation.FormatColor(c)
}

func getBool(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("config: ignoring invalid boolean %q", value)
		return defaultValue
	}
	return b
}

func getInt(value string, defaultValue, lo, hi int) int {
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < lo || n > hi {
		log.Printf("config: ignoring out-of-range value %q", value)
		return defaultValue
	}
	return n
}

func getFloat(value string, defaultValue, lo, hi float64) float64 {
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < lo || f > hi {
		log.Printf("config: ignoring out-of-range value %q", value)
		return defaultValue
	}
	return f
}

// ResolvedSaveDir is where captures are written: SaveDir when set, else
// the user's Pictures folder, else the working directory.
func (c *Config) ResolvedSaveDir() string {
	if dir := strings.TrimSpace(c.SaveDir); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, "Pictures")
	}
	return "."
}
