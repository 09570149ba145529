package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
)

// HTTPDoer describes the HTTP client used to reach the daemon.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a running extraction daemon.
type Client struct {
	baseURL string
	client  HTTPDoer
}

// NewClient constructs a Client for the given base URL. A nil doer falls back
// to http.DefaultClient.
func NewClient(baseURL string, client HTTPDoer) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  client,
	}
}

// Extract uploads media bytes and returns the extracted FeatureRecord.
func (c *Client) Extract(ctx context.Context, filename string, data []byte) (*FeatureRecord, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	if contentType := mime.TypeByExtension(filepath.Ext(filename)); contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", &body)
	if err != nil {
		return nil, fmt.Errorf("build extract request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var record FeatureRecord
	if err := c.do(req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Health fetches the daemon health report.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("build health request: %w", err)
	}
	var health HealthResponse
	if err := c.do(req, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Records lists cached feature records.
func (c *Client) Records(ctx context.Context) ([]FeatureRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/records", nil)
	if err != nil {
		return nil, fmt.Errorf("build records request: %w", err)
	}
	var records []FeatureRecord
	if err := c.do(req, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Record fetches one cached record by ad id.
func (c *Client) Record(ctx context.Context, adID string) (*FeatureRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/records/"+adID, nil)
	if err != nil {
		return nil, fmt.Errorf("build record request: %w", err)
	}
	var record FeatureRecord
	if err := c.do(req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteRecord removes one cached record by ad id.
func (c *Client) DeleteRecord(ctx context.Context, adID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/records/"+adID, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	return c.do(req, nil)
}

// ClearRecords drops every cached record.
func (c *Client) ClearRecords(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/records", nil)
	if err != nil {
		return fmt.Errorf("build clear request: %w", err)
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("reach daemon at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode daemon response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var envelope ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return fmt.Errorf("daemon returned %d: %s (%s)", resp.StatusCode, envelope.Error.Message, envelope.Error.Code)
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}
	return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, trimmed)
}
