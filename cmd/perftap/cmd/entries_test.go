package cmd

import (
	"testing"
)

func TestParseEntriesArgs(t *testing.T) {
	opts, err := parseEntriesArgs([]string{"--limit", "20", "--min-ms", "100", "--name", "click", "--since", "42"})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if opts.limit != 20 {
		t.Errorf("expected limit 20, got %d", opts.limit)
	}
	if opts.minMs != 100 {
		t.Errorf("expected min-ms 100, got %v", opts.minMs)
	}
	if opts.name != "click" {
		t.Errorf("expected name click, got %q", opts.name)
	}
	if opts.since != 42 {
		t.Errorf("expected since 42, got %d", opts.since)
	}
}

func TestParseEntriesArgs_UnknownFlag(t *testing.T) {
	if _, err := parseEntriesArgs([]string{"--bogus"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestParseEntriesArgs_MissingValue(t *testing.T) {
	if _, err := parseEntriesArgs([]string{"--limit"}); err == nil {
		t.Error("expected error for missing value")
	}
}

func TestParseEntriesArgs_InvalidNumber(t *testing.T) {
	if _, err := parseEntriesArgs([]string{"--limit", "zero"}); err == nil {
		t.Error("expected error for non-numeric limit")
	}
	if _, err := parseEntriesArgs([]string{"--min-ms", "-5"}); err == nil {
		t.Error("expected error for negative min-ms")
	}
}

func TestEntriesQuery(t *testing.T) {
	opts := entriesOptions{limit: 10, minMs: 16.5, name: "keydown", since: 7}
	query := opts.query()

	if query.Get("limit") != "10" {
		t.Errorf("expected limit 10, got %q", query.Get("limit"))
	}
	if query.Get("min_ms") != "16.5" {
		t.Errorf("expected min_ms 16.5, got %q", query.Get("min_ms"))
	}
	if query.Get("name") != "keydown" {
		t.Errorf("expected name keydown, got %q", query.Get("name"))
	}
	if query.Get("since") != "7" {
		t.Errorf("expected since 7, got %q", query.Get("since"))
	}
}

func TestEntriesQuery_Empty(t *testing.T) {
	query := entriesOptions{}.query()
	if len(query) != 0 {
		t.Errorf("expected empty query for zero options, got %v", query)
	}
}
