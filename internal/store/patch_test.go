package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"huntboard/tracker-service/internal/lifecycle"
)

func TestBuildPatch_WhitelistedKeys(t *testing.T) {
	sets, args, err := buildPatch(vacancyPatchColumns, lifecycle.Fields{
		"companyName": "Acme",
		"notes":       "friendly team",
	})
	if err != nil {
		t.Fatalf("buildPatch: %v", err)
	}
	if len(sets) != 2 || len(args) != 2 {
		t.Fatalf("got %d sets / %d args, want 2 / 2", len(sets), len(args))
	}
	joined := strings.Join(sets, ", ")
	if !strings.Contains(joined, "company_name = $") || !strings.Contains(joined, "notes = $") {
		t.Errorf("unexpected SET fragments: %s", joined)
	}
}

func TestBuildPatch_RejectsUnknownKey(t *testing.T) {
	_, _, err := buildPatch(vacancyPatchColumns, lifecycle.Fields{"salaryExpectation": "100k"})
	var ve *lifecycle.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("unknown key = %v, want *ValidationError", err)
	}
}

// status is not in any whitelist; the engine rejects it earlier, but the
// store must refuse it too.
func TestBuildPatch_StatusNeverWhitelisted(t *testing.T) {
	for name, cols := range map[string]map[string]string{
		"vacancy":   vacancyPatchColumns,
		"recruiter": recruiterPatchColumns,
	} {
		if _, ok := cols["status"]; ok {
			t.Errorf("%s whitelist must not contain status", name)
		}
		if _, _, err := buildPatch(cols, lifecycle.Fields{"status": "archived"}); err == nil {
			t.Errorf("%s buildPatch(status) should fail", name)
		}
	}
}

func TestBuildPatch_DateCoercion(t *testing.T) {
	sets, args, err := buildPatch(vacancyPatchColumns, lifecycle.Fields{
		"applicationDate": "2026-02-01T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("buildPatch: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("got %d sets, want 1", len(sets))
	}
	ts, ok := args[0].(time.Time)
	if !ok {
		t.Fatalf("arg = %T, want time.Time", args[0])
	}
	want := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("parsed time = %v, want %v", ts, want)
	}
}

func TestBuildPatch_RejectsBadDate(t *testing.T) {
	_, _, err := buildPatch(recruiterPatchColumns, lifecycle.Fields{"lastContactDate": "yesterday"})
	var ve *lifecycle.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("bad date = %v, want *ValidationError", err)
	}
}

func TestBuildPatch_NullClearsField(t *testing.T) {
	sets, args, err := buildPatch(vacancyPatchColumns, lifecycle.Fields{"notes": nil})
	if err != nil {
		t.Fatalf("buildPatch: %v", err)
	}
	if len(sets) != 1 || args[0] != nil {
		t.Errorf("null value should pass through as SQL NULL, got %v / %v", sets, args)
	}
}

func TestBuildPatch_RejectsNonStringText(t *testing.T) {
	_, _, err := buildPatch(vacancyPatchColumns, lifecycle.Fields{"companyName": 42.0})
	var ve *lifecycle.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("numeric text field = %v, want *ValidationError", err)
	}
}

func TestNilIfEmpty(t *testing.T) {
	if nilIfEmpty("") != nil {
		t.Error("empty string should map to nil")
	}
	if got := nilIfEmpty("x"); got == nil || *got != "x" {
		t.Errorf("nilIfEmpty(\"x\") = %v", got)
	}
}
