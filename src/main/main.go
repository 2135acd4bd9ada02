package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"screen-capture-tool/src/clipboard"
	"screen-capture-tool/src/config"
	"screen-capture-tool/src/eventloop"
	"screen-capture-tool/src/hotkey"
	"screen-capture-tool/src/logutil"
	"screen-capture-tool/src/notification"
	"screen-capture-tool/src/screenshot"
	"screen-capture-tool/src/singleinstance"
	"screen-capture-tool/src/tray"
	"screen-capture-tool/src/worker"
)

const appTitle = "Screen Capture Tool"

type mainOptions struct {
	captureOnce bool
	configPath  string
	hotkey      string
	saveDir     string
}

// legacyFlags are accepted with a single dash for older shortcuts.
var legacyFlags = []string{"capture-once", "config", "hotkey", "save-dir"}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range legacyFlags {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-capture-tool",
		Short:         "Resident screen capture with annotations, driven by a tray icon and a global hotkey",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(*opts)
		},
	}
	cmd.Flags().BoolVar(&opts.captureOnce, "capture-once", false, "Run one capture session, export it, and exit")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to settings file")
	cmd.Flags().StringVar(&opts.hotkey, "hotkey", "", "Override the capture hotkey, e.g. Ctrl+Shift+S")
	cmd.Flags().StringVar(&opts.saveDir, "save-dir", "", "Override the directory captures are saved to")
	return cmd
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	// Lock main goroutine to its own OS thread; overlay sessions run their
	// own locked thread.
	runtime.LockOSThread()

	cmd := newRootCmd(&mainOptions{})
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts mainOptions) error {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ConfigPathOverride: opts.configPath,
		HotkeyOverride:     opts.hotkey,
		SaveDirOverride:    opts.saveDir,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logutil.Setup(cfg.EnableFileLogging)
	logMonitorConfiguration(screenshot.NewScreen())
	if cfg.Path != "" {
		log.Printf("Config loaded from %s", cfg.Path)
	}

	if err := clipboard.Init(); err != nil {
		// Saving still works without a clipboard.
		log.Printf("Clipboard unavailable: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	ports := residentPorts(cfg)
	if opts.captureOnce {
		return handleCaptureOnceWithDelegation(ctx, singleinstance.NewClient(ports), func() error {
			return captureOnce(ctx, eventloop.New(cfg))
		})
	}

	srv := singleinstance.NewServer(ports)
	if err := srv.Start(ctx); err != nil {
		fmt.Printf("one is already running on port %d\n", ports.Start)
		return err
	}
	defer srv.Close()

	loop := eventloop.New(cfg)
	loop.Serve(srv)
	return resident(ctx, cancel, cfg, loop)
}

func residentPorts(cfg *config.Config) singleinstance.Ports {
	return singleinstance.Ports{Start: cfg.PortStart, End: cfg.PortEnd}.Normalize()
}

// handleCaptureOnceWithDelegation hands the capture to a running resident,
// which owns the hotkey and overlay, and falls back to a standalone session
// when none answers.
func handleCaptureOnceWithDelegation(ctx context.Context, client singleinstance.Client, fallback func() error) error {
	delegated, path, err := client.TryCapture(ctx, singleinstance.Request{})
	if !delegated {
		log.Printf("No resident detected (not delegated), running standalone")
		return fallback()
	}
	log.Printf("Delegated to resident")
	if errors.Is(err, singleinstance.ErrCancelled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resident capture failed: %w", err)
	}
	if path != "" {
		fmt.Println(path)
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// onceRunner is the part of the event loop the capture-once mode needs.
type onceRunner interface {
	CaptureOnce(ctx context.Context) (worker.Result, bool, error)
}

func captureOnce(ctx context.Context, loop onceRunner) error {
	log.Printf("Running a single capture session")
	res, cancelled, err := loop.CaptureOnce(ctx)
	if cancelled {
		log.Printf("Capture cancelled")
		return nil
	}
	if res.Path != "" {
		fmt.Println(res.Path)
	}
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}
	return nil
}

func resident(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, loop *eventloop.Loop) error {
	if err := hotkey.Validate(cfg.Hotkey); err != nil {
		notification.ShowBlockingError("Invalid hotkey", fmt.Sprintf("%v\n\nCheck HOTKEY in your settings file.", err))
		return err
	}

	log.Printf("%s initialized", appTitle)
	log.Printf("Hotkey: %s", cfg.Hotkey)
	log.Printf("Save directory: %s", cfg.ResolvedSaveDir())

	tooltip := fmt.Sprintf("%s - Press %s to capture", appTitle, cfg.Hotkey)
	loop.SetDefaultTooltip(tooltip)

	trayIcon, err := tray.New(tray.Config{
		Title:      appTitle,
		Tooltip:    tooltip,
		OnCapture:  func() { loop.Post(eventloop.RequestCapture) },
		OnSaveLast: func() { loop.Post(eventloop.RequestSaveLast) },
		OnCopyLast: func() { loop.Post(eventloop.RequestCopyLast) },
		OnExit:     cancel,
	})
	if err != nil {
		return fmt.Errorf("failed to create tray icon: %w", err)
	}
	go trayIcon.Run()
	defer trayIcon.Destroy()

	if err := loop.StartHotkey(cfg.Hotkey); err != nil {
		// The tray menu still works without the hotkey.
		log.Printf("Hotkey registration failed: %v", err)
		notification.ShowError("Hotkey unavailable", err.Error())
	} else {
		defer hotkey.Stop()
	}

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Printf("event loop stopped")
	return nil
}
