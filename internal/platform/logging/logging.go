package logging

import (
	"io"
	"os"
	"strings"

	hclog "github.com/hashicorp/go-hclog"
)

type Options struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// New builds the root logger. Components derive their own with Named.
func New(opts Options) hclog.Logger {
	level := hclog.LevelFromString(strings.TrimSpace(opts.Level))
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "fieldcap",
		Level:      level,
		Output:     out,
		JSONFormat: opts.JSON,
	})
}

// Discard is used where no logger was configured.
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}

// OrDiscard returns logger, or a null logger when it is nil.
func OrDiscard(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}
