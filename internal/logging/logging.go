package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Options configures Setup.
type Options struct {
	// Level accepts "debug", "info", "warn", "error" (case-insensitive).
	Level string
	// JSON selects the JSON handler; text otherwise.
	JSON bool
	// SentryDSN, when set, also sends error records to Sentry.
	SentryDSN   string
	Environment string
	Output      io.Writer
}

// ParseLevel maps a level name to a slog.Level. Unrecognized names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup creates a configured *slog.Logger, sets it as the default, and
// returns it with a flush func to call before exit.
func Setup(opts Options) (*slog.Logger, func()) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handlers []slog.Handler
	if opts.JSON {
		handlers = append(handlers, slog.NewJSONHandler(out, hopts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(out, hopts))
	}

	flush := func() {}
	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         opts.SentryDSN,
			Environment: opts.Environment,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
			flush = func() { sentry.Flush(2 * time.Second) }
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, flush
}
