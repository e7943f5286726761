package agentscope

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerMu sync.RWMutex
	logger   = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

// SetLogger replaces the process-wide logger. This is the one global
// mutable concession permitted by §5 — everything else is per-agent
// or per-call state.
func SetLogger(l zerolog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// Log returns the current process-wide logger, scoped to component.
func Log(component string) zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger.With().Str("component", component).Logger()
}
