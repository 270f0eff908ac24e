// Package logging builds the process logger.
//
// Every level at or above the configured one goes to a rotating log file, while the
// console only shows warnings and errors so interactive output stays readable.
package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// Options configures the process logger.
type Options struct {
	Level      string // "debug", "info", "warn", "error"
	File       string // empty disables the file writer
	MaxSizeMB  int
	MaxBackups int
}

// New builds a logger from opts.
func New(opts Options) *log.Logger {
	console := &log.ConsoleWriter{Writer: os.Stderr}

	var writer log.Writer = console
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 5
		}
		backups := opts.MaxBackups
		if backups <= 0 {
			backups = 3
		}
		writer = &log.MultiLevelWriter{
			InfoWriter: &log.FileWriter{
				Filename:     opts.File,
				MaxSize:      int64(maxSize) * 1024 * 1024,
				MaxBackups:   backups,
				EnsureFolder: true,
				LocalTime:    true,
			},
			ConsoleWriter: console,
			ConsoleLevel:  log.WarnLevel,
		}
	}

	return &log.Logger{
		Level:      log.ParseLevel(opts.Level),
		TimeFormat: "2006-01-02 15:04:05",
		Writer:     writer,
	}
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: log.IOWriter{Writer: io.Discard}}
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
