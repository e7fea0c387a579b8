package verify

import (
	"fmt"
	"io"
	"testing"

	"go.uber.org/zap"
	"gofr.dev/pkg/gofr/logging"
)

// Reporter receives human readable diagnostics while spans are verified.
// Verification results never depend on it.
type Reporter interface {
	Logf(format string, args ...any)
}

// ReporterFunc adapts a plain function to a Reporter.
type ReporterFunc func(format string, args ...any)

func (f ReporterFunc) Logf(format string, args ...any) { f(format, args...) }

type nopReporter struct{}

func (nopReporter) Logf(string, ...any) {}

// TB reports through the test log of t.
func TB(t testing.TB) Reporter {
	return ReporterFunc(func(format string, args ...any) {
		t.Helper()
		t.Logf(format, args...)
	})
}

// Logger reports at info level through a gofr logger.
func Logger(l logging.Logger) Reporter {
	return ReporterFunc(l.Infof)
}

// Zap reports at info level through a zap logger.
func Zap(l *zap.Logger) Reporter {
	s := l.Sugar()
	return ReporterFunc(s.Infof)
}

// Writer reports one line per message to w.
func Writer(w io.Writer) Reporter {
	return ReporterFunc(func(format string, args ...any) {
		fmt.Fprintf(w, format+"\n", args...)
	})
}
