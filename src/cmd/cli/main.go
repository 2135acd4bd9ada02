package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-capture-tool/src/annotation"
	"screen-capture-tool/src/canvas"
	"screen-capture-tool/src/clipboard"
	"screen-capture-tool/src/config"
	"screen-capture-tool/src/export"
	"screen-capture-tool/src/geometry"
	"screen-capture-tool/src/screenshot"
)

const (
	maxFileSizeMB = 50
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	filePath   string
	screen     bool
	selection  string
	draws      []string
	cursor     string
	outPath    string
	copy       bool
	jsonOutput bool
	verbose    bool
	configPath string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(os.Args, os.Stdin, os.Stdout)
}

func runWithArgs(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		args = []string{"capture-tool"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture-tool",
		Short: "Crop and annotate a screenshot without the interactive overlay",
		Example: `  capture-tool --file desk.png --select 100,100,400,300 --draw arrow:120,120,200,180 --draw "text:130,250:look here" --out out.png
  capture-tool --screen --select 0,0,800,600 --copy --json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd, *opts)
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG desktop image (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.screen, "screen", false, "Capture the live screen instead of reading a file")
	cmd.Flags().StringVar(&opts.selection, "select", "", "Selection as x1,y1,x2,y2 in desktop pixels")
	cmd.Flags().StringArrayVar(&opts.draws, "draw", nil, "Annotation kind:x1,y1,x2,y2 (line, arrow, rect, ellipse) or text:x,y:message; repeatable, drawn in order")
	cmd.Flags().StringVar(&opts.cursor, "cursor", "", "Stamp a cursor marker at x,y in desktop pixels")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "Output PNG path (default: generated name in the save directory)")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the result to the clipboard instead of saving, unless --out is set")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to settings file (highest precedence)")
	_ = cmd.MarkFlagRequired("select")
	cmd.MarkFlagsMutuallyExclusive("file", "screen")
	cmd.MarkFlagsOneRequired("file", "screen")

	return cmd
}

// drawOp is one parsed --draw flag.
type drawOp struct {
	tool       annotation.Tool
	start, end geometry.Point
	text       string
}

func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated numbers, got %q", n, s)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid number %q in %q", p, s)
		}
		out[i] = v
	}
	return out, nil
}

func parsePoint(s string) (geometry.Point, error) {
	v, err := parseInts(s, 2)
	if err != nil {
		return geometry.Point{}, err
	}
	return geometry.Pt(v[0], v[1]), nil
}

func parseRect(s string) (geometry.Rect, error) {
	v, err := parseInts(s, 4)
	if err != nil {
		return geometry.Rect{}, err
	}
	return geometry.Normalize(geometry.Pt(v[0], v[1]), geometry.Pt(v[2], v[3])), nil
}

func parseDraw(s string) (drawOp, error) {
	kind, rest, ok := strings.Cut(s, ":")
	if !ok {
		return drawOp{}, fmt.Errorf("draw %q: expected kind:coordinates", s)
	}
	tool, err := annotation.ParseTool(strings.TrimSpace(kind))
	if err != nil {
		return drawOp{}, fmt.Errorf("draw %q: %w", s, err)
	}
	if tool == annotation.ToolText {
		at, text, ok := strings.Cut(rest, ":")
		if !ok || text == "" {
			return drawOp{}, fmt.Errorf("draw %q: expected text:x,y:message", s)
		}
		p, err := parsePoint(at)
		if err != nil {
			return drawOp{}, fmt.Errorf("draw %q: %w", s, err)
		}
		return drawOp{tool: tool, start: p, end: p, text: text}, nil
	}
	v, err := parseInts(rest, 4)
	if err != nil {
		return drawOp{}, fmt.Errorf("draw %q: %w", s, err)
	}
	return drawOp{tool: tool, start: geometry.Pt(v[0], v[1]), end: geometry.Pt(v[2], v[3])}, nil
}

func runWithOptions(cmd *cobra.Command, opts cliOptions) error {
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(cmd.ErrOrStderr())
		fmt.Fprintf(cmd.ErrOrStderr(), "[verbose] Starting capture tool\n")
	}

	sel, err := parseRect(opts.selection)
	if err != nil {
		return fmt.Errorf("invalid --select: %w", err)
	}
	ops := make([]drawOp, 0, len(opts.draws))
	for _, d := range opts.draws {
		op, err := parseDraw(d)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{ConfigPathOverride: opts.configPath})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.verbose && cfg.Path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "[verbose] Config loaded from %s\n", cfg.Path)
	}

	var source screenshot.Service = screenshot.NewScreen()
	sourceName := "screen"
	if !opts.screen {
		img, err := readPNG(cmd.InOrStdin(), opts.filePath)
		if err != nil {
			return err
		}
		source = screenshot.NewImageSource(img)
		sourceName = opts.filePath
	}

	settings := cfg.Snapshot()
	settings.SessionTimeout = 0
	var engineOpts []canvas.Option
	if opts.cursor != "" {
		p, err := parsePoint(opts.cursor)
		if err != nil {
			return fmt.Errorf("invalid --cursor: %w", err)
		}
		settings.IncludeCursor = true
		engineOpts = append(engineOpts, canvas.WithCursor(func() (geometry.Point, bool) { return p, true }))
	} else {
		settings.IncludeCursor = false
	}

	start := time.Now()
	art, err := annotate(source, settings, sel, ops, engineOpts...)
	if err != nil {
		return err
	}

	res := Result{
		Source:      sourceName,
		Width:       art.Width(),
		Height:      art.Height(),
		Selection:   [4]int{sel.X1, sel.Y1, sel.X2, sel.Y2},
		Annotations: len(ops),
	}
	if opts.outPath != "" || !opts.copy {
		if opts.outPath != "" {
			res.Path, err = export.Save(art.Image(), opts.outPath)
		} else {
			res.Path, err = export.SaveDefault(art.Image(), cfg.ResolvedSaveDir(), cfg.DefaultFilename, time.Now())
		}
		if err != nil {
			return err
		}
	}
	if opts.copy {
		if err := export.Copy(clipboard.System{}, art.Image()); err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		res.Copied = true
	}
	res.Duration = time.Since(start).Seconds()
	res.Timestamp = time.Now().UTC().Format(time.RFC3339)

	return outputResult(cmd.OutOrStdout(), res, opts.jsonOutput)
}

// annotate replays the selection and the annotations through the
// interactive engine and returns the confirmed capture.
func annotate(source screenshot.Service, settings canvas.Settings, sel geometry.Rect, ops []drawOp, opts ...canvas.Option) (*canvas.Artifact, error) {
	e, err := canvas.New(source, settings, opts...)
	if err != nil {
		return nil, err
	}
	if !e.Desktop().ContainsRect(sel) {
		return nil, fmt.Errorf("selection %v is outside the desktop %v", sel, e.Desktop())
	}

	drag(e, sel.Min(), sel.Max())
	if _, ok := e.Selection(); !ok {
		return nil, fmt.Errorf("selection %v is too small", sel)
	}
	for _, op := range ops {
		if !sel.Contains(op.start) {
			return nil, fmt.Errorf("%s annotation starts at %v, outside the selection", op.tool, op.start)
		}
		e.SetTool(op.tool)
		if op.tool == annotation.ToolText {
			e.PointerDown(pf(op.start))
			e.CommitText(op.text)
			continue
		}
		drag(e, op.start, op.end)
	}

	if _, err := e.Confirm(); err != nil {
		return nil, err
	}
	art, _ := e.Keep()
	return art, nil
}

func drag(e *canvas.Engine, from, to geometry.Point) {
	e.PointerDown(pf(from))
	e.PointerMove(pf(to))
	e.PointerUp(pf(to))
}

func pf(p geometry.Point) geometry.PointF {
	return geometry.PointF{X: float64(p.X), Y: float64(p.Y)}
}

func readPNG(stdin io.Reader, filePath string) (image.Image, error) {
	var data []byte
	var err error
	if filePath == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		return nil, fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}
	return img, nil
}

// Result is the --json output.
type Result struct {
	Path        string  `json:"path,omitempty"`
	Copied      bool    `json:"copied"`
	Source      string  `json:"source"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Selection   [4]int  `json:"selection"`
	Annotations int     `json:"annotations"`
	Timestamp   string  `json:"timestamp"`
	Duration    float64 `json:"duration_seconds"`
}

func outputResult(w io.Writer, res Result, jsonOutput bool) error {
	if jsonOutput {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(res); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}
	if res.Path != "" {
		fmt.Fprintln(w, res.Path)
	}
	if res.Copied {
		fmt.Fprintf(w, "copied %dx%d image to clipboard\n", res.Width, res.Height)
	}
	return nil
}
