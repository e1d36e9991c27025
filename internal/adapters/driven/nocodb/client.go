// Package nocodb implements the primary post sink over the NocoDB v2
// HTTP API: image upload to storage, record creation in a table, and
// the recent-post window read.
package nocodb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
	"github.com/custodia-labs/paperpost-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.PostSink = (*Client)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// Conservative limiter; NocoDB instances are often small.
	defaultRequestsPerSecond = 5.0
	defaultBurstSize         = 5
)

// Config holds the NocoDB connection parameters. All four values must
// be present for the client to be Configured.
type Config struct {
	// BaseURL is the NocoDB instance root, e.g. https://noco.example.com.
	BaseURL string

	// APIToken is the xc-token credential.
	APIToken string

	// TableID identifies the posts table.
	TableID string

	// BaseID identifies the base/workspace.
	BaseID string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Client talks to one NocoDB table.
type Client struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     Config
}

// New creates a NocoDB client. An incomplete Config is not an error:
// the client reports Configured() == false and the router skips the
// primary path.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurstSize),
		cfg:     cfg,
	}
}

// Configured reports whether all required connection parameters are
// present simultaneously.
func (c *Client) Configured() bool {
	return c.cfg.BaseURL != "" && c.cfg.APIToken != "" && c.cfg.TableID != "" && c.cfg.BaseID != ""
}

// wait blocks until the rate limiter admits the next request.
func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// UploadAsset uploads the figure image to NocoDB storage and returns
// the file descriptor the records API expects.
func (c *Client) UploadAsset(ctx context.Context, path string) (driven.AssetInfo, error) {
	if !c.Configured() {
		return nil, domain.ErrConfigIncomplete
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.cfg.BaseURL+"/api/v2/storage/upload",
		&body,
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("xc-token", c.cfg.APIToken)

	respBody, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	var uploaded []driven.AssetInfo
	if err := json.Unmarshal(respBody, &uploaded); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if len(uploaded) == 0 {
		return nil, fmt.Errorf("upload image: empty response")
	}
	return uploaded[0], nil
}

// CreateRecord writes the structured post record. The image field
// carries the uploaded asset descriptor as a one-element array, which
// is the shape NocoDB expects for attachment columns.
func (c *Client) CreateRecord(ctx context.Context, rec driven.PostRecord) error {
	if !c.Configured() {
		return domain.ErrConfigIncomplete
	}
	if err := c.wait(ctx); err != nil {
		return err
	}

	payload := map[string]any{
		"post":              rec.Text,
		"image_description": rec.Description,
		"image_index":       rec.FigureIndex,
		"image_filename":    filepath.Base(rec.ImagePath),
	}
	if rec.Asset != nil {
		payload["image"] = []driven.AssetInfo{rec.Asset}
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/api/v2/tables/%s/records", c.cfg.BaseURL, c.cfg.TableID),
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xc-token", c.cfg.APIToken)

	if _, err := c.do(req); err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

// recordList is the NocoDB list-records response envelope.
type recordList struct {
	List []struct {
		Post string `json:"post"`
	} `json:"list"`
}

// Recent returns up to limit post bodies, most recent first. An
// unconfigured client returns an empty window rather than an error,
// matching the similarity gate's degrade-to-empty contract.
func (c *Client) Recent(ctx context.Context, limit int) ([]string, error) {
	if !c.Configured() {
		return nil, nil
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("sort", "-CreatedAt")

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/api/v2/tables/%s/records?%s", c.cfg.BaseURL, c.cfg.TableID, q.Encode()),
		http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xc-token", c.cfg.APIToken)

	respBody, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch recent posts: %w", err)
	}

	var list recordList
	if err := json.Unmarshal(respBody, &list); err != nil {
		return nil, fmt.Errorf("decode recent posts: %w", err)
	}

	bodies := make([]string, 0, len(list.List))
	for _, rec := range list.List {
		if rec.Post != "" {
			bodies = append(bodies, rec.Post)
		}
	}
	return bodies, nil
}

// do executes a request and returns the response body, converting
// non-2xx statuses to errors.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("nocodb error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
