package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	file    *os.File
	mu      sync.Mutex
	enabled bool
	logger  = log.New(io.Discard)
)

// Path returns where the debug log is written
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "midiedit", "debug.log"), nil
}

// Enable starts debug logging to ~/.config/midiedit/debug.log
func Enable() error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	logPath, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	file = f
	enabled = true
	logger = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Level:           log.DebugLevel,
	})
	logger.Debug("=== Debug logging started ===")

	return nil
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	enabled = false
	logger = log.New(io.Discard)
}

// Logger returns the debug file logger, or a discarding one when disabled
func Logger() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Log writes a message to the debug log
func Log(category, format string, args ...any) {
	Logger().With("cat", category).Debug(fmt.Sprintf(format, args...))
}

var counters = make(map[string]int)

// LogEvery logs one call in n per category, tagged with the running count
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	counters[category]++
	count := counters[category]
	l := logger
	mu.Unlock()

	if n <= 1 || count%n == 0 {
		l.With("cat", category, "count", count).Debug(fmt.Sprintf(format, args...))
	}
}
