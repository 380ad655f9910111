package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("admission denied", "operation", "CASE_READ")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if entry["msg"] != "admission denied" {
		t.Errorf("Unexpected msg: %v", entry["msg"])
	}
	if entry["operation"] != "CASE_READ" {
		t.Errorf("Unexpected operation attr: %v", entry["operation"])
	}
}

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("started")
	if !strings.Contains(buf.String(), "msg=started") {
		t.Errorf("Unexpected text output: %s", buf.String())
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("Info logged at warn level: %s", buf.String())
	}

	logger.Warn("loud")
	if buf.Len() == 0 {
		t.Error("Warn suppressed at warn level")
	}
}

func TestNew_Defaults(t *testing.T) {
	// Empty level and format fall back to info/json
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("Debug logged at default level: %s", buf.String())
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{Level: "verbose"}); err == nil {
		t.Error("Expected error for unknown level")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("Expected error for unknown format")
	}
}
