package records

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"adscope/internal/api"
	"adscope/internal/config"
	"adscope/internal/services"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Records.Enabled = true
	cfg.Records.Path = filepath.Join(cfg.Paths.DataDir, "records.db")
	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(adID, modality string) *api.FeatureRecord {
	return &api.FeatureRecord{
		AdID: adID,
		Media: api.MediaInfo{
			Modality: modality,
			Width:    640,
			Height:   480,
		},
		Features: api.Features{
			Color: api.ColorFeatures{
				Colorfulness: 12.5,
				PaletteHex:   []string{"#112233", "#445566", "#778899", "#aabbcc", "#808080"},
			},
			Layout: api.LayoutFeatures{AspectRatio: 4.0 / 3.0, WhitespaceRatio: 0.2},
		},
		Version: api.Version,
	}
}

func TestStoreSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	want := sampleRecord("aaaa111122223333", "image")
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, want.AdID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AdID != want.AdID || got.Media.Modality != "image" {
		t.Fatalf("got = %+v", got)
	}
	if len(got.Features.Color.PaletteHex) != 5 {
		t.Fatalf("palette survived with %d entries", len(got.Features.Color.PaletteHex))
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Get(context.Background(), "ffffffffffffffff")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestStoreSaveIsIdempotentPerAdID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := sampleRecord("bbbb111122223333", "image")
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	record.Features.Layout.WhitespaceRatio = 0.9
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1 after upsert", count)
	}
	got, err := store.Get(ctx, record.AdID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Features.Layout.WhitespaceRatio != 0.9 {
		t.Fatalf("upsert did not overwrite: %v", got.Features.Layout.WhitespaceRatio)
	}
}

func TestStoreListAndClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"1111111111111111", "2222222222222222"} {
		if err := store.Save(ctx, sampleRecord(id, "image")); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("list length = %d, want 2", len(records))
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count after clear = %d, want 0", count)
	}
}

func TestStoreDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := sampleRecord("cccc111122223333", "image")
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, record.AdID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, record.AdID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, record.AdID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestStoreRejectsEmptyAdID(t *testing.T) {
	store := openTestStore(t)
	err := store.Save(context.Background(), &api.FeatureRecord{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}
