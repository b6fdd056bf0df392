package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonathan/field-discovery/internal/types"
)

// failingBackend errors on every operation after an optional grace count.
type failingBackend struct {
	gets int
	puts int
}

func (b *failingBackend) Get(context.Context, string) ([]byte, bool, error) {
	b.gets++
	return nil, false, errors.New("connection refused")
}

func (b *failingBackend) Put(context.Context, string, []byte, time.Duration) error {
	b.puts++
	return errors.New("connection refused")
}

func record(fp string) *Record {
	return &Record{
		Fingerprint: fp,
		Schema: types.Schema{
			types.DocumentFieldsSection: {
				Label:  "Document Fields",
				Fields: map[string]*types.Field{"event_name": {Label: "Event Name"}},
			},
		},
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, ok := store.Get(ctx, "missing"); ok {
		t.Fatal("Get on empty store reported a hit")
	}

	store.Put(ctx, "fp1", record("fp1"), DefaultTTL)
	rec, ok := store.Get(ctx, "fp1")
	if !ok {
		t.Fatal("Get after Put reported a miss")
	}
	if rec.Fingerprint != "fp1" {
		t.Errorf("Fingerprint = %q, want fp1", rec.Fingerprint)
	}
}

func TestFallbackStore_DegradesPermanently(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{}
	store := NewFallbackStore(backend)

	store.Put(ctx, "fp2", record("fp2"), DefaultTTL)
	if !store.Degraded() {
		t.Fatal("store did not degrade after backend failure")
	}

	// The record must still be readable through the fallback.
	if _, ok := store.Get(ctx, "fp2"); !ok {
		t.Error("record lost during degradation")
	}

	// Backend must not be retried once degraded.
	puts := backend.puts
	store.Put(ctx, "fp3", record("fp3"), DefaultTTL)
	if backend.puts != puts {
		t.Error("degraded store still calls backend")
	}
}

func TestFallbackStore_NilBackendIsMemoryOnly(t *testing.T) {
	ctx := context.Background()
	store := NewFallbackStore(nil)
	if !store.Degraded() {
		t.Fatal("nil backend should start degraded")
	}
	store.Put(ctx, "fp4", record("fp4"), 0)
	if _, ok := store.Get(ctx, "fp4"); !ok {
		t.Error("memory-only store lost record")
	}
}

func TestRecordCodec(t *testing.T) {
	raw, err := encodeRecord(record("fp5"))
	if err != nil {
		t.Fatalf("encodeRecord: %v", err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	if rec.Schema.DocumentFields() == nil {
		t.Error("decoded record lost document_fields section")
	}
}
