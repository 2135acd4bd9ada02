package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"screen-capture-tool/src/annotation"
	"screen-capture-tool/src/geometry"
)

func writePNG(t *testing.T, w, h int) (string, []byte) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "desk.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path, buf.Bytes()
}

// emptyConfig keeps the user's settings file out of the tests.
func emptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.env")
	if err := os.WriteFile(path, []byte("# test\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestParseRect(t *testing.T) {
	r, err := parseRect("300, 200,100,50")
	if err != nil {
		t.Fatalf("parseRect: %v", err)
	}
	want := geometry.Rect{X1: 100, Y1: 50, X2: 300, Y2: 200}
	if r != want {
		t.Errorf("parseRect = %v, want %v", r, want)
	}

	for _, bad := range []string{"", "1,2,3", "1,2,3,x", "1,2,3,4,5"} {
		if _, err := parseRect(bad); err == nil {
			t.Errorf("parseRect(%q) should fail", bad)
		}
	}
}

func TestParseDraw(t *testing.T) {
	tests := []struct {
		in   string
		want drawOp
	}{
		{"arrow:1,2,3,4", drawOp{tool: annotation.ToolArrow, start: geometry.Pt(1, 2), end: geometry.Pt(3, 4)}},
		{"rect:10,10,5,5", drawOp{tool: annotation.ToolRect, start: geometry.Pt(10, 10), end: geometry.Pt(5, 5)}},
		{"text:7,8:hello: world", drawOp{tool: annotation.ToolText, start: geometry.Pt(7, 8), end: geometry.Pt(7, 8), text: "hello: world"}},
		{"text:1,2:  ", drawOp{tool: annotation.ToolText, start: geometry.Pt(1, 2), end: geometry.Pt(1, 2), text: "  "}},
	}
	for _, tt := range tests {
		got, err := parseDraw(tt.in)
		if err != nil {
			t.Errorf("parseDraw(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDraw(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"arrow", "spiral:1,2,3,4", "line:1,2", "text:1,2", "text:1,2:"} {
		if _, err := parseDraw(bad); err == nil {
			t.Errorf("parseDraw(%q) should fail", bad)
		}
	}
}

func TestNewRootCmdFlags(t *testing.T) {
	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--file", "a.png", "--select", "0,0,10,10", "--draw", "line:1,1,5,5", "--draw", "text:2,2:x", "-o", "out.png", "--json", "-v"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if opts.filePath != "a.png" || opts.selection != "0,0,10,10" || opts.outPath != "out.png" {
		t.Errorf("unexpected options: %+v", opts)
	}
	if len(opts.draws) != 2 || opts.draws[1] != "text:2,2:x" {
		t.Errorf("draws = %v", opts.draws)
	}
	if !opts.jsonOutput || !opts.verbose {
		t.Error("expected --json and --verbose to be set")
	}
}

func TestRunRequiresSource(t *testing.T) {
	var out bytes.Buffer
	err := runWithArgs([]string{"capture-tool", "--select", "0,0,10,10"}, strings.NewReader(""), &out)
	if err == nil {
		t.Fatal("expected an error without --file or --screen")
	}
}

func TestRunAnnotatesFile(t *testing.T) {
	in, _ := writePNG(t, 120, 80)
	outPath := filepath.Join(t.TempDir(), "result")
	var out bytes.Buffer

	err := runWithArgs([]string{
		"capture-tool",
		"--config", emptyConfig(t),
		"--file", in,
		"--select", "10,10,110,70",
		"--draw", "rect:20,20,60,50",
		"--draw", "arrow:30,30,100,60",
		"--draw", "text:15,60:note",
		"--out", outPath,
		"--json",
	}, strings.NewReader(""), &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var res Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if res.Path != outPath+".png" {
		t.Errorf("path = %q, want %q", res.Path, outPath+".png")
	}
	if res.Width != 100 || res.Height != 60 || res.Annotations != 3 {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Selection != [4]int{10, 10, 110, 70} {
		t.Errorf("selection = %v", res.Selection)
	}

	f, err := os.Open(res.Path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 60 {
		t.Errorf("output size = %v", img.Bounds())
	}
	// The rectangle outline passes through (20,20) of the desktop, (10,10) of the crop.
	if c := color.RGBAModel.Convert(img.At(10, 10)).(color.RGBA); c == (color.RGBA{R: 200, G: 200, B: 200, A: 255}) {
		t.Error("expected the rectangle annotation on the output")
	}
}

func TestRunReadsStdin(t *testing.T) {
	_, data := writePNG(t, 40, 40)
	dir := t.TempDir()
	outPath := filepath.Join(dir, "stdin.png")
	var out bytes.Buffer

	err := runWithArgs([]string{"capture-tool", "--config", emptyConfig(t), "--file", "-", "--select", "0,0,40,40", "-o", outPath}, bytes.NewReader(data), &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(out.String()) != outPath {
		t.Errorf("output = %q, want %q", out.String(), outPath)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	in, _ := writePNG(t, 50, 50)
	cfg := emptyConfig(t)
	cases := map[string][]string{
		"not png":           {"--file", "-", "--select", "0,0,10,10"},
		"outside desktop":   {"--file", in, "--select", "0,0,80,80"},
		"too small":         {"--file", in, "--select", "0,0,1,1"},
		"stroke outside":    {"--file", in, "--select", "0,0,20,20", "--draw", "line:30,30,40,40"},
		"bad draw":          {"--file", in, "--select", "0,0,20,20", "--draw", "blob:1,1,2,2"},
		"bad cursor":        {"--file", in, "--select", "0,0,20,20", "--cursor", "x"},
		"file and screen":   {"--file", in, "--screen", "--select", "0,0,20,20"},
		"missing selection": {"--file", in},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			full := append([]string{"capture-tool", "--config", cfg, "-o", filepath.Join(t.TempDir(), "x.png")}, args...)
			if err := runWithArgs(full, strings.NewReader("plain text"), &out); err == nil {
				t.Errorf("expected an error for %v", args)
			}
		})
	}
}

func TestReadPNGRejectsEmptyAndOversized(t *testing.T) {
	if _, err := readPNG(strings.NewReader(""), "-"); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("empty stdin: %v", err)
	}
	big := bytes.NewReader(make([]byte, maxFileSize+10))
	if _, err := readPNG(big, "-"); err == nil || !strings.Contains(err.Error(), "maximum size") {
		t.Errorf("oversized stdin: %v", err)
	}
}
