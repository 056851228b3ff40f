package logging

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures a Logger built by Open.
type Options struct {
	// Level is the minimum level. Default: INFO.
	Level Level

	// File, when set, sends output to a size-rotated file instead of stderr.
	File string

	// MaxSizeMB is the size at which File is rotated. Default: 10.
	MaxSizeMB int

	// MaxBackups is how many rotated files are kept. Default: 3.
	MaxBackups int
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds a Logger from opts. The returned closer releases the log file
// and is a no-op for stderr output.
func Open(opts Options) (*Logger, io.Closer, error) {
	l := New()
	if opts.Level != "" {
		l.SetLevel(opts.Level)
	}
	if opts.File == "" {
		return l, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, err
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 3
	}
	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}
	l.SetOutput(rotator)
	return l, rotator, nil
}
