package server

import (
	"fmt"
	"log"
	"time"

	"github.com/df07/go-shape-kernel/pkg/core"
)

// ConsoleMessage is one log line forwarded to the stress stream
type ConsoleMessage struct {
	RunID     string    `json:"runId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger for a single stress run. Lines go to the
// server log and, when there is room, to the run's console channel.
type WebLogger struct {
	runID string
	out   chan<- ConsoleMessage
}

// NewWebLogger creates a logger for the given run. A nil channel logs to the
// server log only.
func NewWebLogger(runID string, out chan<- ConsoleMessage) core.Logger {
	return &WebLogger{runID: runID, out: out}
}

// Printf implements core.Logger
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	log.Printf("[%s] %s", wl.runID, message)
	wl.send(ConsoleMessage{RunID: wl.runID, Message: message, Timestamp: time.Now(), Level: "info"})
}

// send never blocks a stress worker: a full channel drops the line
func (wl *WebLogger) send(msg ConsoleMessage) {
	if wl.out == nil {
		return
	}
	select {
	case wl.out <- msg:
	default:
	}
}
