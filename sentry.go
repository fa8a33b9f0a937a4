package main

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

// version is stamped by the release build; "dev" otherwise.
var version = "dev"

var sentryEnabled bool

// InitSentry sets up error reporting. Reporting stays disabled when no DSN
// is configured, and every Capture* helper is then a no-op.
func InitSentry(dsn string) error {
	env := "production"
	if os.Getenv("TABLY_ENV") == "dev" {
		env = "development"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		Release:          "tably@" + version,
		TracesSampleRate: 0.1,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	sentryEnabled = true
	return nil
}

// FlushAndShutdown gives pending events a bounded window to leave the
// process before exit.
func FlushAndShutdown() {
	if sentryEnabled {
		sentry.Flush(5 * time.Second)
	}
}

// CaptureError reports err together with the buffered breadcrumbs.
func CaptureError(err error) {
	if err == nil || !sentryEnabled {
		return
	}
	if breadcrumbs != nil {
		breadcrumbs.Flush()
	}
	sentry.CaptureException(err)
}

// CaptureMessage reports a plain message together with the buffered
// breadcrumbs.
func CaptureMessage(message string) {
	if !sentryEnabled {
		return
	}
	if breadcrumbs != nil {
		breadcrumbs.Flush()
	}
	sentry.CaptureMessage(message)
}
