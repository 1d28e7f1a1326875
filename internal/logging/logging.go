// Package logging hands out prefixed, leveled loggers that share one level
// and one output.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
)

const header = "${time_rfc3339} ${level} [${prefix}]"

var (
	mu      sync.Mutex
	level             = log.INFO
	output  io.Writer = os.Stderr
	loggers           = make(map[string]*log.Logger)
)

// For returns the logger for a component, creating it on first use.
func For(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[component]; ok {
		return l
	}
	l := log.New(component)
	l.SetHeader(header)
	l.SetLevel(level)
	l.SetOutput(output)
	loggers[component] = l
	return l
}

// Configure sets the level and output of every logger, existing or future.
func Configure(levelName string, w io.Writer) error {
	lvl, err := ParseLevel(levelName)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	level = lvl
	if w != nil {
		output = w
	}
	for _, l := range loggers {
		l.SetLevel(level)
		l.SetOutput(output)
	}
	return nil
}

// ParseLevel maps a configuration string to a log level.
func ParseLevel(name string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off", "none":
		return log.OFF, nil
	}
	return log.INFO, fmt.Errorf("unknown log level: %q", name)
}

// OpenFile opens (appending) a log file, creating its directory.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// ShortID trims an identifier for log prefixes.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type sharedWriter struct{}

func (sharedWriter) Write(p []byte) (int, error) {
	mu.Lock()
	w := output
	mu.Unlock()
	return w.Write(p)
}

// Writer returns a writer that follows the output set by Configure.
func Writer() io.Writer {
	return sharedWriter{}
}
