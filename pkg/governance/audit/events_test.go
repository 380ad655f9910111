package audit

import (
	"fmt"
	"testing"
	"time"
)

func TestRecorder_RecentNewestFirst(t *testing.T) {
	r := NewRecorder(nil)
	until := time.Now().Add(time.Minute)

	for i := 0; i < 3; i++ {
		r.BlockCreated(fmt.Sprintf("user-%d", i), "CASE_READ", until, 5)
	}

	events := r.Recent(0)
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	if events[0].PrincipalID != "user-2" {
		t.Errorf("Expected newest event first, got %s", events[0].PrincipalID)
	}
	if events[2].PrincipalID != "user-0" {
		t.Errorf("Expected oldest event last, got %s", events[2].PrincipalID)
	}
}

func TestRecorder_RecentLimit(t *testing.T) {
	r := NewRecorder(nil)
	until := time.Now().Add(time.Minute)

	for i := 0; i < 10; i++ {
		r.BlockCreated(fmt.Sprintf("user-%d", i), "CASE_READ", until, 5)
	}

	events := r.Recent(4)
	if len(events) != 4 {
		t.Fatalf("Expected 4 events, got %d", len(events))
	}
	if events[0].PrincipalID != "user-9" {
		t.Errorf("Expected user-9 first, got %s", events[0].PrincipalID)
	}
}

func TestRecorder_RingWrapAround(t *testing.T) {
	r := NewRecorder(nil)
	until := time.Now().Add(time.Minute)

	// Overfill the ring; only the newest defaultRetained survive
	total := defaultRetained + 10
	for i := 0; i < total; i++ {
		r.BlockCreated(fmt.Sprintf("user-%d", i), "CASE_READ", until, 5)
	}

	events := r.Recent(0)
	if len(events) != defaultRetained {
		t.Fatalf("Expected %d retained events, got %d", defaultRetained, len(events))
	}
	if events[0].PrincipalID != fmt.Sprintf("user-%d", total-1) {
		t.Errorf("Expected newest event first after wrap, got %s", events[0].PrincipalID)
	}
}

func TestRecorder_EventFields(t *testing.T) {
	r := NewRecorder(nil)
	until := time.Now().Add(time.Minute)

	r.BlockCreated("user-1", "EXPORT_BULK", until, 7)
	r.QuotaCritical("SHEETS_API_CALLS", 19500, 20000)

	events := r.Recent(2)
	if events[0].Type != EventQuotaCritical {
		t.Errorf("Expected quota event first, got %s", events[0].Type)
	}
	if events[0].Detail["resource"] != "SHEETS_API_CALLS" {
		t.Errorf("Unexpected quota detail: %v", events[0].Detail)
	}
	if events[0].ID == "" {
		t.Error("Expected event ID set")
	}

	if events[1].Type != EventBlockCreated {
		t.Errorf("Expected block event, got %s", events[1].Type)
	}
	if events[1].PrincipalID != "user-1" || events[1].OperationType != "EXPORT_BULK" {
		t.Errorf("Unexpected block identity: %+v", events[1])
	}
	if events[1].Detail["violations"] != 7 {
		t.Errorf("Unexpected block detail: %v", events[1].Detail)
	}
}
