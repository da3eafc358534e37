package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/recite/internal/auth"
	"github.com/rbright/recite/internal/catalog"
	"github.com/rbright/recite/internal/config"
	"github.com/rbright/recite/internal/logging"
	"github.com/rbright/recite/internal/progress"
	"github.com/rbright/recite/internal/recognizer"
	"github.com/rbright/recite/internal/server"
	"github.com/rbright/recite/internal/submit"
	"github.com/rbright/recite/internal/telemetry"
	"github.com/rbright/recite/internal/version"
)

const progressListLimit = 20

func (r Runner) commandServe(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	cat, warnings, err := catalog.Resolve(cfg.Catalog.Path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logCatalogWarnings(logger, cfg.Catalog.Path, warnings)

	var dumpSink io.Writer
	if cfg.Debug.RecognizerDump {
		sink, err := logging.OpenDebugSink("recognizer.jsonl")
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		defer func() { _ = sink.Close() }()
		dumpSink = sink
	}

	var audioSink recognizer.AudioSinkOpener
	if cfg.Debug.AudioDump {
		audioSink = func() (io.WriteCloser, error) {
			return logging.OpenDebugSink(fmt.Sprintf("audio-%s.wav", time.Now().Format("20060102-150405.000")))
		}
	}

	rec, err := recognizer.NewGoogle(ctx, recognizer.GoogleConfig{
		Endpoint:              cfg.Recognizer.Endpoint,
		Insecure:              cfg.Recognizer.Insecure,
		LanguageCode:          cfg.Recognizer.LanguageCode,
		Model:                 cfg.Recognizer.Model,
		DebugResponseSinkJSON: dumpSink,
		DebugAudioSink:        audioSink,
		Logger:                logger,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = rec.Close() }()

	serverCfg := server.Config{
		Listen:     cfg.Server.Listen,
		Catalog:    cat,
		Recognizer: rec,
		Logger:     logger,
	}

	if strings.TrimSpace(cfg.Auth.Secret) == "" {
		logger.Warn("auth.secret is not set; routes are open and progress is not recorded")
	} else {
		issuer, err := auth.NewIssuer(cfg.Auth.Secret, tokenTTL(cfg.Auth))
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		store, err := openProgress(ctx, cfg.Progress)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		defer func() { _ = store.Close() }()

		serverCfg.Issuer = issuer
		serverCfg.Progress = store
	}

	if cfg.Server.Metrics {
		metrics, err := telemetry.New(version.Version)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := metrics.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics shutdown failed", "error", err.Error())
			}
		}()
		serverCfg.Metrics = metrics
	}

	srv, err := server.New(serverCfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logger.Info("serve configured",
		"listen", cfg.Server.Listen,
		"sentences", len(cat.Sentences),
		"paragraphs", len(cat.Paragraphs),
		"auth", serverCfg.Issuer != nil,
		"metrics", serverCfg.Metrics != nil,
	)
	fmt.Fprintf(r.Stdout, "listening on %s\n", cfg.Server.Listen)

	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("server failed", "error", err.Error())
		return 1
	}
	return 0
}

func (r Runner) commandProgress(ctx context.Context, cfg config.Config, email string) int {
	user := strings.ToLower(strings.TrimSpace(email))
	if user == "" {
		fmt.Fprintln(r.Stderr, "error: email is required")
		return 2
	}

	store, err := openProgress(ctx, cfg.Progress)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(ctx, user, progress.DefaultHistoryLimit)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	summary := progress.Summarise(entries)
	fmt.Fprintf(r.Stdout, "user: %s\n", user)
	fmt.Fprintf(r.Stdout, "sessions: %d\n", summary.TotalSessions)
	if summary.TotalSessions == 0 {
		return 0
	}
	fmt.Fprintf(r.Stdout, "average: %s\n", submit.FormatScore(*summary.AverageScore))
	fmt.Fprintf(r.Stdout, "best: %s\n", submit.FormatScore(*summary.BestScore))
	fmt.Fprintf(r.Stdout, "last: %s\n", submit.FormatScore(*summary.LastScore))
	fmt.Fprintf(r.Stdout, "last practiced: %s\n", summary.LastPracticed.Local().Format(time.RFC3339))

	if len(entries) > progressListLimit {
		entries = entries[:progressListLimit]
	}
	fmt.Fprintln(r.Stdout)
	for _, entry := range entries {
		fmt.Fprintf(r.Stdout, "%s  %-9s %-8s %8s  %q\n",
			entry.CreatedAt.Local().Format("2006-01-02 15:04"),
			entry.ContentType,
			entry.ContentID,
			submit.FormatScore(entry.Score),
			entry.Transcript,
		)
	}
	return 0
}

func (r Runner) commandToken(cfg config.Config, email string, role string) int {
	issuer, err := auth.NewIssuer(cfg.Auth.Secret, tokenTTL(cfg.Auth))
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v (set auth.secret or RECITE_AUTH_SECRET)\n", err)
		return 1
	}

	token, err := issuer.Issue(email, strings.ToLower(strings.TrimSpace(role)))
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 2
	}
	fmt.Fprintln(r.Stdout, token)
	return 0
}

func tokenTTL(cfg config.AuthConfig) time.Duration {
	return time.Duration(cfg.TokenTTLHours) * time.Hour
}

func openProgress(ctx context.Context, cfg config.ProgressConfig) (*progress.Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		var err error
		path, err = config.StatePath("progress.db")
		if err != nil {
			return nil, err
		}
	}
	return progress.Open(ctx, path, cfg.HistoryLimit)
}
