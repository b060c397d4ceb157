package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

type Options struct {
	Development bool
	SentryDSN   string
	Environment string
	Release     string
}

// Init installs the default logger: text at debug level in development, JSON
// at info level otherwise. With a Sentry DSN, errors are also sent to Sentry.
// The returned func flushes pending Sentry events.
func Init(opts Options) func() {
	var handlers []slog.Handler

	if opts.Development {
		handlers = append(handlers, slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	flush := func() {}
	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         opts.SentryDSN,
			Environment: opts.Environment,
			Release:     opts.Release,
		})
		if err != nil {
			slog.New(handlers[0]).Warn("failed to initialize sentry, continuing without it", "error", err)
		} else {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
			flush = func() { sentry.Flush(2 * time.Second) }
		}
	}

	handler := handlers[0]
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	}

	slog.SetDefault(slog.New(handler))
	return flush
}
