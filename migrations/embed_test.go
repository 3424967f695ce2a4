package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEveryMigrationHasUpAndDown(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for _, name := range files {
		body, err := fs.ReadFile(FS, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), marker) {
				t.Fatalf("%s is missing %q", name, marker)
			}
		}
	}
}

func TestFollowUpIndexesMatchListOrder(t *testing.T) {
	body, err := fs.ReadFile(FS, "00002_follow_ups.sql")
	if err != nil {
		t.Fatalf("read follow-up migration: %v", err)
	}
	sql := string(body)

	for _, index := range []string{
		"ON follow_ups(lead_id, created_at, id)",
		"ON follow_ups(created_at, id)",
	} {
		if !strings.Contains(sql, index) {
			t.Fatalf("expected index %q", index)
		}
	}
}
