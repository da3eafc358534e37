package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rbright/recite/internal/audio"
	"github.com/rbright/recite/internal/capture"
	"github.com/rbright/recite/internal/catalog"
	"github.com/rbright/recite/internal/coach"
	"github.com/rbright/recite/internal/config"
	"github.com/rbright/recite/internal/indicator"
	"github.com/rbright/recite/internal/ipc"
	"github.com/rbright/recite/internal/practice"
	"github.com/rbright/recite/internal/submit"
	"github.com/rbright/recite/internal/tui"
)

const (
	acquireProbeTimeout = 180 * time.Millisecond
	acquireRetries      = 8
	catalogFetchTimeout = 3 * time.Second
	drainTimeout        = 5 * time.Second
)

func (r Runner) commandPractice(ctx context.Context, cfg config.Config, logger *slog.Logger, headless bool) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{
		ProbeTimeout: acquireProbeTimeout,
		Retries:      acquireRetries,
		OnStale: func(path string) {
			logger.Info("removed stale practice socket", "path", path)
		},
	})
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a recite practice session is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	client, err := submit.NewClient(submit.ClientConfig{
		BaseURL: cfg.Server.URL,
		Token:   cfg.Server.Token,
		Timeout: time.Duration(cfg.Server.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	cat, err := loadPracticeCatalog(ctx, client, cfg.Catalog.Path, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	display := practice.New(cat)
	cues := indicator.New(cfg.Indicator, logger)
	defer cues.Wait()

	mic := audio.Microphone{Input: cfg.Audio.Input, Fallback: cfg.Audio.Fallback, Logger: logger}
	controller := capture.NewController(logger, mic, client, display, cues)
	session := coach.New(logger, display, controller)

	practiceCtx, cancelPractice := context.WithCancel(ctx)
	defer cancelPractice()

	serverCtx, serverCancel := context.WithCancel(practiceCtx)
	defer serverCancel()
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, ipc.HandlerFunc(session.Handle))
	}()

	var runErr error
	if headless {
		printDisplay := headlessPrinter(r.Stdout)
		display.OnChange(printDisplay)
		printDisplay(display.Snapshot())
		<-practiceCtx.Done()
	} else {
		in := r.Stdin
		if in == nil {
			in = os.Stdin
		}
		runErr = tui.Run(practiceCtx, session, display, in, r.Stdout)
	}

	cancelPractice()
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), drainTimeout)
	defer cancelDrain()
	if _, err := session.Wait(drainCtx); err != nil {
		logger.Warn("capture did not finish before exit", "error", err.Error())
	}

	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}
	if runErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	return 0
}

// loadPracticeCatalog prefers an explicit catalog file, then the server's
// catalog, then the built-in set.
func loadPracticeCatalog(ctx context.Context, client *submit.Client, path string, logger *slog.Logger) (catalog.Catalog, error) {
	if strings.TrimSpace(path) != "" {
		cat, warnings, err := catalog.Load(path)
		if err != nil {
			return catalog.Catalog{}, err
		}
		logCatalogWarnings(logger, path, warnings)
		return cat, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, catalogFetchTimeout)
	defer cancel()
	cat, warnings, err := client.FetchCatalog(fetchCtx)
	if err == nil {
		logCatalogWarnings(logger, "server", warnings)
		return cat, nil
	}

	logger.Warn("fetch catalog failed; using built-in catalog", "error", err.Error())
	return catalog.Default(), nil
}

func logCatalogWarnings(logger *slog.Logger, source string, warnings []catalog.Warning) {
	for _, w := range warnings {
		logger.Warn("catalog warning", "source", source, "message", w.Message)
	}
}

// headlessPrinter writes display changes as plain lines for use without a
// terminal UI.
func headlessPrinter(out io.Writer) func(practice.Display) {
	var (
		mu    sync.Mutex
		last  practice.Display
		first = true
	)
	return func(d practice.Display) {
		mu.Lock()
		defer mu.Unlock()

		if first || d.Heading != last.Heading || d.Text != last.Text {
			fmt.Fprintf(out, "%s: %s\n", d.Heading, d.Text)
		}
		if d.Status != "" && d.Status != last.Status {
			fmt.Fprintln(out, d.Status)
		}
		if d.ResultsVisible && !last.ResultsVisible {
			fmt.Fprintf(out, "transcript: %s\nscore: %s\n", d.Transcript, d.Score)
		}
		if d.RedirectTo != "" && d.RedirectTo != last.RedirectTo {
			fmt.Fprintf(out, "login: %s\n", d.RedirectTo)
		}
		last = d
		first = false
	}
}
