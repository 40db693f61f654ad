// Package logging configures Piccolo's ambient structured logging. It
// is strictly an engineering concern (a debug line per `-e` run,
// warnings when a cache backend or readline cannot be opened) — the
// language core packages never
// import it, preserving their embeddability (SPEC_FULL.md §7).
//
// Grounded on other_examples/…rami3l-golox…vm-parser.go's
// logrus.Debugln/logrus.Panicln usage; the teacher (estevaofon-noxy)
// carries no logging library at all.
package logging

import (
	"os"

	"github.com/ncruces/go-strftime"
	"github.com/sirupsen/logrus"
)

// strftimeFormatter renders log timestamps with a strftime layout
// instead of logrus's default Go reference-time layout, so the CLI's
// timestamps share a format with internal/store's Record.CreatedAt.
type strftimeFormatter struct {
	layout string
	inner  logrus.Formatter
}

func (f *strftimeFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Data["ts"] = strftime.Format(f.layout, e.Time)
	return f.inner.Format(e)
}

// New builds a logrus.Logger at the given level, writing to stderr with
// a compact text formatter.
func New(level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetFormatter(&strftimeFormatter{
		layout: "%Y-%m-%d %H:%M:%S",
		inner:  &logrus.TextFormatter{DisableTimestamp: true},
	})
	return l
}
