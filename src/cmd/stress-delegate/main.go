package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"screen-capture-tool/src/config"
	"screen-capture-tool/src/singleinstance"
)

type stressOptions struct {
	n        int
	action   string
	deadline time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-delegate",
		Short:         "Stress test capture delegation to a running resident",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.action {
			case "", "save", "copy":
			default:
				return fmt.Errorf("invalid --action %q (want save, copy or empty)", opts.action)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			ports := singleinstance.Ports{Start: cfg.PortStart, End: cfg.PortEnd}
			return runWithOptions(cmd.OutOrStdout(), *opts, singleinstance.NewClient(ports))
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 20, "number of clients to launch")
	cmd.Flags().StringVar(&opts.action, "action", "", "save|copy, empty to follow the resident's settings")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 30*time.Second, "per-client timeout")

	return cmd
}

// tally counts client outcomes.
type tally struct {
	mu     sync.Mutex
	counts map[string]int
}

func (t *tally) add(outcome string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counts == nil {
		t.counts = map[string]int{}
	}
	t.counts[outcome]++
}

func classify(delegated bool, err error) string {
	switch {
	case !delegated:
		return "none"
	case err == nil:
		return "ok"
	case errors.Is(err, singleinstance.ErrCancelled):
		return "cancelled"
	case strings.Contains(strings.ToLower(err.Error()), "busy") ||
		strings.Contains(strings.ToLower(err.Error()), "still running"):
		return "busy"
	}
	return "err"
}

func runWithOptions(out io.Writer, opts stressOptions, client singleinstance.Client) error {
	var wg sync.WaitGroup
	var t tally

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			delegated, _, err := client.TryCapture(ctx, singleinstance.Request{Action: opts.action})
			t.add(classify(delegated, err))
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)
	fmt.Fprintf(out, "launched=%d ok=%d cancelled=%d busy=%d err=%d none=%d elapsed=%s\n",
		opts.n, t.counts["ok"], t.counts["cancelled"], t.counts["busy"], t.counts["err"], t.counts["none"], elapsed.Round(time.Millisecond))
	return nil
}
