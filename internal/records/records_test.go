package records

import (
	"context"
	"errors"
	"testing"

	"haaziri/internal/store"
)

type failingKV struct{ store.KV }

// flakyKV fails the next n reads, then delegates.
type flakyKV struct {
	store.KV
	fails int
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.fails > 0 {
		f.fails--
		return "", false, errors.New("i/o timeout")
	}
	return f.KV.Get(ctx, key)
}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func TestListEmpty(t *testing.T) {
	s := New(store.NewMemory())
	got := s.List(context.Background())
	if got == nil || len(got) != 0 {
		t.Fatalf("List on empty store = %#v, want empty non-nil slice", got)
	}
}

func TestAppendPrependsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemory())

	for _, r := range []Record{{ID: "1", Name: "Alice"}, {ID: "2", Name: "Bob"}} {
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := s.Append(ctx, Record{ID: "3", Name: "Carol"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got := s.List(ctx)
	want := []string{"Carol", "Bob", "Alice"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("record %d = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestAppendKeepsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemory())
	s.Append(ctx, Record{ID: "42", Name: "A"})
	s.Append(ctx, Record{ID: "42", Name: "B"})
	if n := len(s.List(ctx)); n != 2 {
		t.Fatalf("len = %d, want 2", n)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemory())
	s.Append(ctx, Record{ID: "1", Name: "Alice"})
	s.SetSyncEndpoint(ctx, "https://sheet.example")

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n := len(s.List(ctx)); n != 0 {
		t.Fatalf("after Clear len = %d", n)
	}
	if got := s.SyncEndpoint(ctx); got != "https://sheet.example" {
		t.Fatalf("Clear touched the settings: %q", got)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear on empty store: %v", err)
	}
}

func TestMalformedRecordsReadAsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	kv.Set(ctx, RecordsKey, `[{"id": "1", "name":`)
	s := New(kv)

	if got := s.List(ctx); len(got) != 0 {
		t.Fatalf("List = %#v, want empty", got)
	}
	// A later append starts over from an empty list.
	if err := s.Append(ctx, Record{ID: "2", Name: "Dan"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := s.List(ctx); len(got) != 1 || got[0].Name != "Dan" {
		t.Fatalf("List = %#v", got)
	}
}

func TestBackendErrorsReadAsEmpty(t *testing.T) {
	s := New(failingKV{store.NewMemory()})
	if got := s.List(context.Background()); len(got) != 0 {
		t.Fatalf("List = %#v", got)
	}
	if got := s.SyncEndpoint(context.Background()); got != "" {
		t.Fatalf("SyncEndpoint = %q", got)
	}
}

func TestSyncEndpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemory())

	if got := s.SyncEndpoint(ctx); got != "" {
		t.Fatalf("default endpoint = %q", got)
	}
	for _, u := range []string{"https://script.google.com/macros/s/abc/exec", "not a url", ""} {
		if err := s.SetSyncEndpoint(ctx, u); err != nil {
			t.Fatalf("SetSyncEndpoint(%q): %v", u, err)
		}
		if got := s.SyncEndpoint(ctx); got != u {
			t.Errorf("SyncEndpoint = %q, want %q", got, u)
		}
	}
}

func TestMalformedSettingsReadAsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	s := New(kv)

	for _, raw := range []string{`{sheetUrl:`, `{"other":"x"}`, `"just a string"`} {
		kv.Set(ctx, SettingsKey, raw)
		if got := s.SyncEndpoint(ctx); got != "" {
			t.Errorf("SyncEndpoint with %s = %q, want empty", raw, got)
		}
	}
}

func TestAppendAfterFailedReadKeepsRecords(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{KV: store.NewMemory()}
	s := New(kv)
	s.Append(ctx, Record{ID: "1", Name: "Alice"})
	s.Append(ctx, Record{ID: "2", Name: "Bob"})

	kv.fails = 1
	if err := s.Append(ctx, Record{ID: "3", Name: "Carol"}); err == nil {
		t.Fatal("Append succeeded although the existing list could not be read")
	}
	got := s.List(ctx)
	if len(got) != 2 || got[0].Name != "Bob" || got[1].Name != "Alice" {
		t.Fatalf("List after failed append = %#v", got)
	}

	if err := s.Append(ctx, Record{ID: "3", Name: "Carol"}); err != nil {
		t.Fatalf("Append after recovery: %v", err)
	}
	if n := len(s.List(ctx)); n != 3 {
		t.Fatalf("len = %d, want 3", n)
	}
}
