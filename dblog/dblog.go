// Package dblog wraps logrus with the structured, stream-aware setup the
// rest of docbase shares: a single default logger, debug-mode toggling,
// and per-operation field helpers for collection/operation-scoped logging.
package dblog

import (
	"bytes"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	stdLock sync.Mutex
	std     *logrus.Logger
)

// outputSplitter routes error-level log lines to stderr and everything else
// to stdout, so containerized/scripted callers can treat the streams
// differently without parsing structured fields themselves.
type outputSplitter struct{}

func (outputSplitter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte("level=error")) || bytes.Contains(p, []byte(`"level":"error"`)) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// New builds a logger configured for either human-readable development
// output or structured JSON.
func New(debug bool) *logrus.Logger {
	logger := logrus.New()
	if debug {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.SetOutput(outputSplitter{})
	return logger
}

// Default returns the process-wide logger, created lazily at Info level.
// SetDefault replaces it, typically once at startup from config.Options.Debug.
func Default() *logrus.Logger {
	stdLock.Lock()
	defer stdLock.Unlock()
	if std == nil {
		std = New(false)
	}
	return std
}

// SetDefault installs l as the process-wide default logger.
func SetDefault(l *logrus.Logger) {
	stdLock.Lock()
	defer stdLock.Unlock()
	std = l
}

// Fields builds the structured fields the collection cache attaches to its
// log lines: collection name and operation.
func Fields(collection, op string) logrus.Fields {
	return logrus.Fields{"collection": collection, "op": op}
}

// MaskToken renders a bearer token safe for debug logging: first/last 4
// characters visible, the rest elided.
func MaskToken(token string) string {
	if token == "" {
		return "<not set>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
