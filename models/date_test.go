package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in       string
		expected string
		wantErr  bool
	}{
		{"2025-02-01", "2025-02-01", false},
		{"2025-02-01T15:32:25Z", "2025-02-01", false},
		{"2025-02-01T15:32:25.181226+02:00", "2025-02-01", false},
		{"2025-02-01T15:32:25", "2025-02-01", false},
		{"01/02/2025", "", true},
	}
	for _, tt := range tests {
		d, err := ParseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && d.String() != tt.expected {
			t.Errorf("ParseDate(%q) = %s, expected %s", tt.in, d, tt.expected)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Day  Date  `json:"day"`
		Next *Date `json:"next"`
	}
	if err := json.Unmarshal([]byte(`{"day":"2025-07-15","next":null}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Day.String() != "2025-07-15" {
		t.Errorf("day = %s", payload.Day)
	}
	if payload.Next != nil {
		t.Errorf("next = %v, expected nil", payload.Next)
	}

	out, err := json.Marshal(payload.Day)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2025-07-15"` {
		t.Errorf("marshal = %s", out)
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	sources := []interface{}{
		"2025-02-01",
		[]byte("2025-02-01"),
		"2025-02-01 00:00:00+00:00",
		time.Date(2025, 2, 1, 13, 0, 0, 0, time.UTC),
	}
	for _, src := range sources {
		if err := d.Scan(src); err != nil {
			t.Fatalf("Scan(%v): %v", src, err)
		}
		if d.String() != "2025-02-01" {
			t.Errorf("Scan(%v) = %s", src, d)
		}
	}
	if err := d.Scan(42); err == nil {
		t.Error("expected error for int source")
	}
}

func TestDateValue(t *testing.T) {
	v, err := Date{}.Value()
	if err != nil || v != nil {
		t.Errorf("zero Value() = %v, %v", v, err)
	}
	d, _ := ParseDate("2025-12-31")
	v, _ = d.Value()
	if v != "2025-12-31" {
		t.Errorf("Value() = %v", v)
	}
	if got := d.AddDays(1).String(); got != "2026-01-01" {
		t.Errorf("AddDays(1) = %s", got)
	}
}
