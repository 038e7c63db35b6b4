package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/mineplan/config"
	coremon "github.com/kilianp07/mineplan/core/monitoring"
)

// NewSentryMonitor initializes Sentry from cfg. Without a DSN it returns a
// no-op monitor. Every event carries the service tag and the configured
// server name.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if !cfg.Enabled() {
		return coremon.NopMonitor{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       cfg.ServerName,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	scope := sentry.NewScope()
	scope.SetTag("service", "mineplan")
	return &sentryMonitor{
		hub:          sentry.NewHub(client, scope),
		recoverFlush: time.Duration(cfg.FlushTimeoutMS) * time.Millisecond,
	}, nil
}

type sentryMonitor struct {
	hub          *sentry.Hub
	recoverFlush time.Duration
}

func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		s.hub.CaptureException(err)
	})
}

// Recover reports a panic of the calling goroutine and re-panics.
func (s *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		s.hub.Recover(r)
		s.hub.Flush(s.recoverFlush)
		panic(r)
	}
}

func (s *sentryMonitor) Flush(timeout time.Duration) { s.hub.Flush(timeout) }
