package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"adscope/internal/api"
	"adscope/internal/config"
	"adscope/internal/logging"
	"adscope/internal/records"
)

func testDaemonConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "log")
	cfg.Paths.APIBind = "127.0.0.1:0"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

func startTestDaemon(t *testing.T, cfg *config.Config, store *records.Store) *Daemon {
	t.Helper()
	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		d.Close()
	})
	return d
}

func pngUpload(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, color.RGBA{R: uint8(2 * x), G: 80, B: uint8(3 * y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDaemonExtractEndpoint(t *testing.T) {
	cfg := testDaemonConfig(t)
	d := startTestDaemon(t, cfg, nil)

	client := api.NewClient("http://"+d.APIAddr(), &http.Client{Timeout: 30 * time.Second})
	record, err := client.Extract(context.Background(), "banner.png", pngUpload(t))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if record.Media.Modality != "image" || record.Media.Width != 120 {
		t.Fatalf("media = %+v", record.Media)
	}
	if len(record.Features.Color.PaletteHex) != 5 {
		t.Fatalf("palette length = %d", len(record.Features.Color.PaletteHex))
	}
	if record.Features.Video != nil {
		t.Fatal("features.video must be null for images")
	}
}

func TestDaemonRejectsUnsupportedUpload(t *testing.T) {
	cfg := testDaemonConfig(t)
	d := startTestDaemon(t, cfg, nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "banner.gif")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	part.Write([]byte("GIF89a not really"))
	writer.Close()

	resp, err := http.Post("http://"+d.APIAddr()+"/extract", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", resp.StatusCode)
	}
	var envelope api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error.Code != "unsupported_media_type" {
		t.Fatalf("code = %q", envelope.Error.Code)
	}
}

func TestDaemonMissingFileField(t *testing.T) {
	cfg := testDaemonConfig(t)
	d := startTestDaemon(t, cfg, nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("note", "no file here")
	writer.Close()

	resp, err := http.Post("http://"+d.APIAddr()+"/extract", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDaemonHealthEndpoint(t *testing.T) {
	cfg := testDaemonConfig(t)
	d := startTestDaemon(t, cfg, nil)

	health, err := api.NewClient("http://"+d.APIAddr(), nil).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "ok" || health.Version != api.Version {
		t.Fatalf("health = %+v", health)
	}
	if len(health.Deps) == 0 {
		t.Fatal("health must report external dependencies")
	}
	if health.Records != nil {
		t.Fatal("records info must be omitted when caching is disabled")
	}
}

func TestDaemonRecordCacheRoundTrip(t *testing.T) {
	cfg := testDaemonConfig(t)
	cfg.Records.Enabled = true
	cfg.Records.Path = filepath.Join(cfg.Paths.DataDir, "records.db")
	store, err := records.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	d := startTestDaemon(t, cfg, store)
	client := api.NewClient("http://"+d.APIAddr(), nil)
	ctx := context.Background()

	record, err := client.Extract(ctx, "banner.png", pngUpload(t))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	cached, err := client.Record(ctx, record.AdID)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if cached.AdID != record.AdID {
		t.Fatalf("cached ad_id = %q, want %q", cached.AdID, record.AdID)
	}

	list, err := client.Records(ctx)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list length = %d, want 1", len(list))
	}

	if err := client.DeleteRecord(ctx, record.AdID); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if err := client.DeleteRecord(ctx, record.AdID); err == nil {
		t.Fatal("deleting a missing record must fail")
	}

	if _, err := client.Extract(ctx, "banner.png", pngUpload(t)); err != nil {
		t.Fatalf("Extract after delete: %v", err)
	}
	if err := client.ClearRecords(ctx); err != nil {
		t.Fatalf("ClearRecords: %v", err)
	}
	if _, err := client.Record(ctx, record.AdID); err == nil {
		t.Fatal("expected lookup failure after clear")
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	cfg := testDaemonConfig(t)
	startTestDaemon(t, cfg, nil)

	second, err := New(cfg, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance must fail to start")
	}
}
