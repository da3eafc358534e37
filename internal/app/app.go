package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/recite/internal/audio"
	"github.com/rbright/recite/internal/catalog"
	"github.com/rbright/recite/internal/cli"
	"github.com/rbright/recite/internal/config"
	"github.com/rbright/recite/internal/doctor"
	"github.com/rbright/recite/internal/ipc"
	"github.com/rbright/recite/internal/logging"
	"github.com/rbright/recite/internal/version"
)

const (
	forwardTimeout = 220 * time.Millisecond
	binaryName     = "recite"
)

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdin: os.Stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp || parsed.Command == cli.CommandHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New(logging.Options{})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"env", cfgLoaded.EnvKeys,
		"log", logRuntime.Path,
	)

	cfg := cfgLoaded.Config
	switch parsed.Command {
	case cli.CommandPractice:
		return r.commandPractice(ctx, cfg, logger, parsed.Headless)
	case cli.CommandServe:
		return r.commandServe(ctx, cfg, logger)
	case cli.CommandProgress:
		return r.commandProgress(ctx, cfg, parsed.Arg(0))
	case cli.CommandToken:
		return r.commandToken(cfg, parsed.Arg(0), parsed.Arg(1))
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandType:
		if _, err := catalog.ParseContentType(parsed.Arg(0)); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 2
		}
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandType, Arg: parsed.Arg(0)})
	case cli.CommandToggle:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandToggle})
	case cli.CommandStart:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandStart})
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandStop})
	case cli.CommandNext:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandNext})
	case cli.CommandPrev:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandPrev})
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	sources, err := audio.ListSources(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(sources) == 0 {
		fmt.Fprintln(r.Stdout, "no audio input sources found")
		return 1
	}

	for _, source := range sources {
		defaultMark := " "
		if source.Default {
			defaultMark = "*"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			source.ID,
			source.Description,
			source.State,
			yesNo(source.Available),
			yesNo(source.Muted),
		)
	}

	return 0
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, err := ownerClient(socketPath).Do(ctx, ipc.Request{Command: ipc.CommandStatus})
	if errors.Is(err, ipc.ErrNoOwner) {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if resp.State == "" {
		resp.State = "idle"
	}
	fmt.Fprintln(r.Stdout, resp.State)
	r.printItem(resp)
	return 0
}

func (r Runner) printItem(resp ipc.Response) {
	if resp.Heading != "" {
		fmt.Fprintf(r.Stdout, "%s: %s\n", resp.Heading, resp.Text)
	}
	if resp.Score != "" {
		fmt.Fprintf(r.Stdout, "transcript: %s\nscore: %s\n", resp.Transcript, resp.Score)
	}
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, err := ownerClient(socketPath).Do(ctx, req)
	if errors.Is(err, ipc.ErrNoOwner) {
		fmt.Fprintln(r.Stderr, "error: no active recite practice session (start one with `recite practice`)")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	if req.Command == ipc.CommandNext || req.Command == ipc.CommandPrev || req.Command == ipc.CommandType {
		r.printItem(resp)
	}
	return 0
}

func ownerClient(socketPath string) ipc.Client {
	return ipc.Client{Path: socketPath, Timeout: forwardTimeout}
}
