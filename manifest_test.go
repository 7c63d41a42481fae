package sitegen

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestManifest(t *testing.T) *Manifest {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "manifest.db")

	m, err := OpenManifest(path)
	if err != nil {
		t.Fatalf("failed to open manifest: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestOpenManifest(t *testing.T) {
	m := setupTestManifest(t)
	if m.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestRecordAndGet(t *testing.T) {
	m := setupTestManifest(t)

	built := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	rec := PageRecord{
		Output:   "public/index.html",
		Content:  "content/index.json",
		Template: "templates/page.html",
		Checksum: "abc",
		BuiltAt:  built,
	}
	if err := m.Record(rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := m.Get("public/index.html")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Content != rec.Content || got.Template != rec.Template || got.Checksum != rec.Checksum {
		t.Errorf("Get = %+v, want %+v", got, rec)
	}
	if !got.BuiltAt.Equal(built) {
		t.Errorf("BuiltAt = %v, want %v", got.BuiltAt, built)
	}
}

func TestRecordUpserts(t *testing.T) {
	m := setupTestManifest(t)

	rec := PageRecord{Output: "a.html", Content: "a.json", Template: "t.html", Checksum: "1", BuiltAt: time.Now()}
	if err := m.Record(rec); err != nil {
		t.Fatal(err)
	}
	rec.Checksum = "2"
	if err := m.Record(rec); err != nil {
		t.Fatal(err)
	}

	records, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Checksum != "2" {
		t.Errorf("checksum = %q, want 2", records[0].Checksum)
	}
}

func TestGetMissing(t *testing.T) {
	m := setupTestManifest(t)
	if _, err := m.Get("nope.html"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestListOrderAndRemove(t *testing.T) {
	m := setupTestManifest(t)

	for _, out := range []string{"c.html", "a.html", "b.html"} {
		if err := m.Record(PageRecord{Output: out, Checksum: out, BuiltAt: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.Remove("b.html"); err != nil {
		t.Fatal(err)
	}

	records, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range records {
		got = append(got, r.Output)
	}
	if len(got) != 2 || got[0] != "a.html" || got[1] != "c.html" {
		t.Errorf("List = %v, want [a.html c.html]", got)
	}
}
