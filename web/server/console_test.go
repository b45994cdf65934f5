package server

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/df07/go-shape-kernel/pkg/stress"
)

func TestWebLogger_StressRun(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 16)
	cases, err := stress.SelectCases(stress.BuiltinCases(), "sphere")
	if err != nil {
		t.Fatalf("Failed to select case: %v", err)
	}

	cfg := stress.Config{Seeds: 3, RaysPerHit: 4, NumWorkers: 2, Logger: NewWebLogger("run-1", messageChan)}
	if _, err := stress.RunCase(context.Background(), cases[0], cfg); err != nil {
		t.Fatalf("RunCase failed: %v", err)
	}

	select {
	case msg := <-messageChan:
		if !strings.HasPrefix(msg.Message, "sphere: 3 seeds on 2 workers") {
			t.Errorf("Expected the sphere run header, got '%s'", msg.Message)
		}
		if msg.RunID != "run-1" {
			t.Errorf("Expected run ID 'run-1', got '%s'", msg.RunID)
		}
		if msg.Level != "info" {
			t.Errorf("Expected level 'info', got '%s'", msg.Level)
		}
		if time.Since(msg.Timestamp) > time.Minute {
			t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
		}
	default:
		t.Error("Expected the run to log its header")
	}

	select {
	case msg := <-messageChan:
		if !strings.HasPrefix(msg.Message, "sphere: ") || !strings.Contains(msg.Message, "failures") {
			t.Errorf("Expected a sphere summary line, got '%s'", msg.Message)
		}
	default:
		t.Error("Expected the run to log a summary")
	}
}

func TestWebLogger_FormatsMessages(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 4)
	logger := NewWebLogger("run-2", messageChan)

	logger.Printf("%s: failing seeds %v\n", "cone", []int64{3, 9})
	msg := <-messageChan
	if expected := "cone: failing seeds [3 9]\n"; msg.Message != expected {
		t.Errorf("Expected '%s', got '%s'", expected, msg.Message)
	}
}

func TestWebLogger_DropsWhenFull(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := NewWebLogger("run-3", messageChan)

	// Later lines must not block once the channel is full
	logger.Printf("first\n")
	logger.Printf("second\n")
	logger.Printf("third\n")

	if len(messageChan) != 1 {
		t.Fatalf("Expected 1 buffered message, got %d", len(messageChan))
	}
	if msg := <-messageChan; msg.Message != "first\n" {
		t.Errorf("Expected the first line to be kept, got '%s'", msg.Message)
	}
}

func TestWebLogger_NilChannel(t *testing.T) {
	logger := NewWebLogger("run-nil", nil)
	logger.Printf("server log only\n")
}

func TestConsoleMessage_JSON(t *testing.T) {
	msg := ConsoleMessage{RunID: "run-4", Message: "sphere: ok", Timestamp: time.Now(), Level: "info"}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	for _, key := range []string{"runId", "message", "timestamp", "level"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("Expected key '%s' in %s", key, data)
		}
	}
	if fields["runId"] != "run-4" {
		t.Errorf("Expected runId 'run-4', got %v", fields["runId"])
	}
}
