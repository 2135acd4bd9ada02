package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"screen-capture-tool/src/annotation"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Hotkey != DefaultHotkey {
		t.Errorf("Expected Hotkey %q, got %q", DefaultHotkey, cfg.Hotkey)
	}
	if cfg.MagnifierSize != 150 || cfg.MagnifierZoom != 3 {
		t.Errorf("Expected magnifier 150x3, got %dx%d", cfg.MagnifierSize, cfg.MagnifierZoom)
	}
	if !cfg.AutoSave || cfg.CopyToClipboard {
		t.Errorf("Expected auto-save on and clipboard off, got %v/%v", cfg.AutoSave, cfg.CopyToClipboard)
	}
	if cfg.SessionTimeoutSec != 300 {
		t.Errorf("Expected 300s timeout, got %d", cfg.SessionTimeoutSec)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, "LINE_COLOR=\"#00ff00\"\nSTROKE_WIDTH=6\nMAGNIFIER_ZOOM=4\nSHOW_MAGNIFIER=true\nDEFAULT_FILENAME=grab\nENABLE_FILE_LOGGING=true\n")

	cfg, err := LoadWithOptions(LoadOptions{ConfigPathOverride: path})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Path != path {
		t.Errorf("Expected Path %q, got %q", path, cfg.Path)
	}
	if cfg.LineColor != "#00ff00" {
		t.Errorf("Expected LineColor #00ff00, got %q", cfg.LineColor)
	}
	if cfg.StrokeWidth != 6 || cfg.MagnifierZoom != 4 || !cfg.ShowMagnifier {
		t.Errorf("Unexpected values: %+v", cfg)
	}
	if cfg.DefaultFilename != "grab" || !cfg.EnableFileLogging {
		t.Errorf("Unexpected values: %+v", cfg)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "HOTKEY=Ctrl+Shift+X\nMAGNIFIER_SIZE=200\n")
	t.Setenv(KeyHotkey, "Ctrl+Alt+P")

	cfg, err := LoadWithOptions(LoadOptions{ConfigPathOverride: path})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Hotkey != "Ctrl+Alt+P" {
		t.Errorf("Expected env hotkey, got %q", cfg.Hotkey)
	}
	if cfg.MagnifierSize != 200 {
		t.Errorf("Expected file magnifier size 200, got %d", cfg.MagnifierSize)
	}

	cfg, err = LoadWithOptions(LoadOptions{ConfigPathOverride: path, HotkeyOverride: "F9", SaveDirOverride: "/tmp/shots"})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Hotkey != "F9" || cfg.SaveDir != "/tmp/shots" {
		t.Errorf("Expected option overrides, got %q %q", cfg.Hotkey, cfg.SaveDir)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	path := writeConfig(t, "OVERLAY_ALPHA=3\nRECT_COLOR=blue\nMAGNIFIER_ZOOM=0\nSHOW_MAGNIFIER=maybe\n")
	cfg, err := LoadWithOptions(LoadOptions{ConfigPathOverride: path})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	def := Default()
	if cfg.OverlayAlpha != def.OverlayAlpha {
		t.Errorf("Expected default alpha, got %v", cfg.OverlayAlpha)
	}
	if cfg.RectColor != def.RectColor {
		t.Errorf("Expected default rect color, got %q", cfg.RectColor)
	}
	if cfg.MagnifierZoom != def.MagnifierZoom || cfg.ShowMagnifier {
		t.Errorf("Expected default magnifier settings, got %d %v", cfg.MagnifierZoom, cfg.ShowMagnifier)
	}
}

func TestPortRangeFromFileAndEnvironment(t *testing.T) {
	path := writeConfig(t, "SCREEN_CAPTURE_PORT_START=50100\nSCREEN_CAPTURE_PORT_END=50105\n")
	cfg, err := LoadWithOptions(LoadOptions{ConfigPathOverride: path})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.PortStart != 50100 || cfg.PortEnd != 50105 {
		t.Errorf("Expected file port range, got %d-%d", cfg.PortStart, cfg.PortEnd)
	}

	t.Setenv(KeyPortEnd, "50200")
	t.Setenv(KeyPortStart, "not-a-port")
	cfg, err = LoadWithOptions(LoadOptions{ConfigPathOverride: path})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.PortStart != Default().PortStart || cfg.PortEnd != 50200 {
		t.Errorf("Expected default start and env end, got %d-%d", cfg.PortStart, cfg.PortEnd)
	}
}

func TestColorOrFallsBack(t *testing.T) {
	fallback := color.RGBA{R: 9, A: 255}
	if got := colorOr("#0a0b0c", fallback); got != (color.RGBA{R: 10, G: 11, B: 12, A: 255}) {
		t.Errorf("Expected parsed color, got %v", got)
	}
	if got := colorOr("teal-ish", fallback); got != fallback {
		t.Errorf("Expected fallback, got %v", got)
	}
}

func TestMissingOverridePathFails(t *testing.T) {
	if _, err := LoadWithOptions(LoadOptions{ConfigPathOverride: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatal("Expected error for unreadable config")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.env")
	cfg := Default()
	cfg.ArrowColor = "#123456"
	cfg.IncludeCursor = true
	cfg.SaveDir = "C:\\Users\\me\\Pictures"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadWithOptions(LoadOptions{ConfigPathOverride: path})
	if err != nil {
		t.Fatalf("Failed to reload: %v", err)
	}
	if loaded.ArrowColor != "#123456" || !loaded.IncludeCursor || loaded.SaveDir != cfg.SaveDir {
		t.Errorf("Round trip lost values: %+v", loaded)
	}
}

func TestSnapshot(t *testing.T) {
	cfg := Default()
	cfg.EllipseColor = "#010203"
	cfg.StrokeWidth = 7
	cfg.TextSize = 20
	cfg.SessionTimeoutSec = 60
	cfg.IncludeCursor = true

	s := cfg.Snapshot()
	ellipse := s.Palette.Style(annotation.ToolEllipse)
	if ellipse.Color != (color.RGBA{R: 1, G: 2, B: 3, A: 255}) || ellipse.Width != 7 {
		t.Errorf("Unexpected ellipse style: %+v", ellipse)
	}
	if s.Palette.Font.Size != 20 || !s.Palette.Font.Bold {
		t.Errorf("Unexpected font: %+v", s.Palette.Font)
	}
	if s.SessionTimeout != time.Minute || !s.IncludeCursor {
		t.Errorf("Unexpected session settings: %v %v", s.SessionTimeout, s.IncludeCursor)
	}
}

func TestResolvedSaveDir(t *testing.T) {
	cfg := Default()
	cfg.SaveDir = "  /tmp/shots "
	if got := cfg.ResolvedSaveDir(); got != "/tmp/shots" {
		t.Fatalf("Expected configured dir, got %q", got)
	}

	t.Setenv("HOME", "/home/tester")
	t.Setenv("USERPROFILE", "/home/tester")
	cfg.SaveDir = ""
	if got := cfg.ResolvedSaveDir(); got != filepath.Join("/home/tester", "Pictures") {
		t.Fatalf("Expected Pictures under home, got %q", got)
	}
}
