// Package logging is the process-wide logger shared by the rigging packages.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

var singleton *log.Logger

func getLogger() *log.Logger {
	once.Do(func() {
		singleton = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			Prefix:          "quadrig",
		})
		singleton.SetLevel(log.InfoLevel)
	})
	return singleton
}

// SetLevel accepts debug, info, warn, error. Unknown names select info.
func SetLevel(level string) {
	l, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		l = log.InfoLevel
	}
	getLogger().SetLevel(l)
}

func SetOutput(w io.Writer) {
	getLogger().SetOutput(w)
}

func Debugf(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func Infof(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func Warnf(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func Errorf(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

// Fatalf logs at error level and exits.
func Fatalf(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}

// Warn logs msg with structured key/value pairs.
func Warn(msg string, keyvals ...interface{}) {
	getLogger().Warn(msg, keyvals...)
}

func Info(msg string, keyvals ...interface{}) {
	getLogger().Info(msg, keyvals...)
}
