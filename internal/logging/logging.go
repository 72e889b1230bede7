// Package logging is a small leveled wrapper around the standard log
// package. Messages go to stderr or, once Setup is given a file name, to a
// rotating log file.
package logging

import (
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
)

// Mode is the lowest severity that gets written.
type Mode uint

const (
	DebugMode Mode = iota
	InfoMode
	WarningMode
	ErrorMode
	SilentMode
)

var (
	mu     sync.Mutex
	mode   = InfoMode
	logger = log.New(os.Stderr, "", log.LstdFlags)
	file   *lumberjack.Logger
)

// Config selects the log destination and rotation.
type Config struct {
	// File is the log file; empty logs to stderr.
	File string `yaml:"file" toml:"file"`

	// MaxSize is the size in megabytes at which the file is rotated.
	MaxSize int `yaml:"maxSize" toml:"max_log_size"`

	// MaxAge is the number of days rotated files are kept.
	MaxAge int `yaml:"maxAge" toml:"max_log_age"`

	MaxBackups int `yaml:"maxBackups" toml:"max_log_backups"`
}

// Setup routes log output according to c. Calling it again replaces the
// previous destination.
func Setup(c Config) {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
	if c.File == "" {
		logger.SetOutput(os.Stderr)
		return
	}
	file = &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSize, // megabytes
		MaxAge:     c.MaxAge,  // days
		MaxBackups: c.MaxBackups,
	}
	logger.SetOutput(file)
}

// SetOutput sends log messages to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// SetMode sets the severity required for a message to be written.
func SetMode(m Mode) {
	mu.Lock()
	defer mu.Unlock()
	mode = m
}

// SetVerbose switches between DebugMode and InfoMode.
func SetVerbose(verbose bool) {
	if verbose {
		SetMode(DebugMode)
	} else {
		SetMode(InfoMode)
	}
}

// Shutdown closes the log file, if any.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
		logger.SetOutput(os.Stderr)
	}
}

func printf(m Mode, prefix, format string, args ...interface{}) {
	mu.Lock()
	enabled := mode <= m
	mu.Unlock()
	if enabled {
		logger.Printf(prefix+format, args...)
	}
}

// Debugf is written only in DebugMode.
func Debugf(format string, args ...interface{}) {
	printf(DebugMode, " DEBUG ", format, args...)
}

func Infof(format string, args ...interface{}) {
	printf(InfoMode, " INFO ", format, args...)
}

func Warningf(format string, args ...interface{}) {
	printf(WarningMode, " WARNING ", format, args...)
}

func Errorf(format string, args ...interface{}) {
	printf(ErrorMode, " ERROR ", format, args...)
}

// TimeLog appends the time elapsed since its creation to each message.
type TimeLog struct {
	start time.Time
}

func NewTimeLog() TimeLog {
	return TimeLog{start: time.Now()}
}

func (t TimeLog) Debugf(format string, args ...interface{}) {
	Debugf(format+": %s", append(args, time.Since(t.start))...)
}

func (t TimeLog) Infof(format string, args ...interface{}) {
	Infof(format+": %s", append(args, time.Since(t.start))...)
}
