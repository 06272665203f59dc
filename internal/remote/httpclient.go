package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/notesync/internal/models"
)

// HTTPClient implements Service over a JSON REST endpoint:
//
//	GET    {base}/records?updated_since=<RFC3339Nano>
//	POST   {base}/records
//	PUT    {base}/records/{id}
//	DELETE {base}/records/{id}
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient builds a client for the given base URL. token, when not
// empty, is sent as a bearer Authorization header.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s: %s", ErrUnavailable, resp.Status, string(b))
	case resp.StatusCode >= 400:
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("remote rejected request: %s: %s", resp.Status, string(b))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) FetchUpdatedSince(ctx context.Context, since time.Time) ([]models.Record, error) {
	path := "/records?updated_since=" + url.QueryEscape(since.UTC().Format(time.RFC3339Nano))

	var recs []models.Record
	if err := c.do(ctx, http.MethodGet, path, nil, &recs); err != nil {
		return nil, err
	}

	for i := range recs {
		normalize(&recs[i])
	}
	return recs, nil
}

func (c *HTTPClient) Create(ctx context.Context, rec models.Record) (*CreateResult, error) {
	var res CreateResult
	if err := c.do(ctx, http.MethodPost, "/records", rec, &res); err != nil {
		return nil, err
	}
	res.CreatedAt = res.CreatedAt.UTC()
	res.UpdatedAt = res.UpdatedAt.UTC()
	return &res, nil
}

func (c *HTTPClient) Update(ctx context.Context, rec models.Record) (*UpdateResult, error) {
	var res UpdateResult
	if err := c.do(ctx, http.MethodPut, "/records/"+url.PathEscape(rec.ID), rec, &res); err != nil {
		return nil, err
	}
	res.UpdatedAt = res.UpdatedAt.UTC()
	return &res, nil
}

// Delete is idempotent: an absent ID means the goal state already holds,
// so a 404 is not an error.
func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/records/"+url.PathEscape(id), nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// normalize brings remote timestamps into the same clock representation as
// local ones (UTC).
func normalize(rec *models.Record) {
	rec.Fields.Date = rec.Fields.Date.UTC()
	rec.Metadata.CreatedAt = rec.Metadata.CreatedAt.UTC()
	rec.Metadata.UpdatedAt = rec.Metadata.UpdatedAt.UTC()
	if rec.Metadata.SyncedAt != nil {
		t := rec.Metadata.SyncedAt.UTC()
		rec.Metadata.SyncedAt = &t
	}
}
