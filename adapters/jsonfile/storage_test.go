package jsonfile

import (
	"context"
	"path/filepath"
	"testing"
)

func TestJSONFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "alice:aggregate", []byte(`{"total_points":50}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "alice:transactions", []byte(`[{"id":"t1"}]`)); err != nil {
		t.Fatal(err)
	}

	// Reopen from disk and verify both keys survived.
	reopened, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	v, ok, err := reopened.Get(ctx, "alice:aggregate")
	if err != nil || !ok || string(v) != `{"total_points":50}` {
		t.Fatalf("got %q ok=%v err=%v", v, ok, err)
	}
	if _, ok, _ := reopened.Get(ctx, "alice:transactions"); !ok {
		t.Fatal("transactions key missing after reopen")
	}
	if _, ok, _ := reopened.Get(ctx, "bob:aggregate"); ok {
		t.Fatal("unexpected key present")
	}
}

func TestJSONFileStoreMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist-yet.json")

	s, err := New(path)
	if err != nil {
		t.Fatalf("new store on missing file: %v", err)
	}
	_, ok, err := s.Get(context.Background(), "anything")
	if err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}
}
