package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientExtract(t *testing.T) {
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/extract" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			file.Close()
			gotContentType = header.Header.Get("Content-Type")
		}
		json.NewEncoder(w).Encode(FeatureRecord{AdID: "abc123", Version: Version})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	record, err := client.Extract(context.Background(), "banner.png", []byte("fake-bytes"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if record.AdID != "abc123" {
		t.Fatalf("ad_id = %q", record.AdID)
	}
	if gotContentType != "image/png" {
		t.Fatalf("part content type = %q, want image/png", gotContentType)
	}
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnsupportedMediaType)
		json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{
			Code:    "unsupported_media_type",
			Message: "image/gif is not supported",
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.Extract(context.Background(), "banner.gif", []byte("GIF89a"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "415") || !strings.Contains(err.Error(), "unsupported_media_type") {
		t.Fatalf("error = %v, want status and code surfaced", err)
	}
}

func TestClientHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Version: Version})
	}))
	defer server.Close()

	health, err := NewClient(server.URL, nil).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "ok" || health.Version != Version {
		t.Fatalf("health = %+v", health)
	}
}

func TestClientClearRecords(t *testing.T) {
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := NewClient(server.URL, nil).ClearRecords(context.Background()); err != nil {
		t.Fatalf("ClearRecords: %v", err)
	}
	if method != http.MethodDelete || path != "/api/records" {
		t.Fatalf("request = %s %s", method, path)
	}
}

func TestFeatureRecordJSONShape(t *testing.T) {
	record := FeatureRecord{
		AdID: "0123456789abcdef",
		Media: MediaInfo{
			Modality: "image",
			Width:    640,
			Height:   480,
		},
		Features: Features{
			Color: ColorFeatures{
				Colorfulness: 42.5,
				MeanBGR:      [3]float64{1, 2, 3},
				StdBGR:       [3]float64{4, 5, 6},
				PaletteHex:   []string{"#112233", "#445566", "#778899", "#aabbcc", "#808080"},
			},
			Layout: LayoutFeatures{AspectRatio: 4.0 / 3.0, WhitespaceRatio: 0.25},
		},
		Version: Version,
	}
	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{
		`"ad_id"`, `"modality"`, `"duration_ms":null`, `"fps":null`,
		`"mean_bgr"`, `"std_bgr"`, `"palette_hex"`, `"aspect_ratio"`,
		`"whitespace_ratio"`, `"video":null`, `"coverage_pct"`,
		`"version":"fx-0.1.0"`,
	} {
		if !strings.Contains(string(data), field) {
			t.Fatalf("marshaled record missing %s: %s", field, data)
		}
	}
}
