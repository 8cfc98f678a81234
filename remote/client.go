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
	"os"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
	limiter   <-chan time.Time
}

func NewClient(apiKey string) (*Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("REMOTE_API_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("REMOTE_API_BASE_URL is not set")
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("REMOTE_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	if strings.TrimSpace(apiKey) == "" {
		apiKey = strings.TrimSpace(os.Getenv("REMOTE_API_KEY"))
	}
	if apiKey == "" {
		return nil, errors.New("remote api key is empty")
	}
	rateLimitPerMin := int64(60)
	if v := strings.TrimSpace(os.Getenv("REMOTE_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   time.Tick(interval),
	}, nil
}

// HealthURL is what the connectivity probe pings.
func (c *Client) HealthURL() string {
	return c.baseURL + "/v1/health"
}

func (c *Client) Create(ctx context.Context, collection string, payload map[string]any) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	localId, _ := payload["local_id"].(string)
	if err := c.doJSON(ctx, http.MethodPost, "/v1/"+collection, localId, payload, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.ID) == "" {
		return "", errors.New("remote create returned no id")
	}
	return resp.ID, nil
}

func (c *Client) Update(ctx context.Context, collection string, id string, payload map[string]any) error {
	return c.doJSON(ctx, http.MethodPut, "/v1/"+collection+"/"+url.PathEscape(id), "", payload, nil)
}

func (c *Client) Delete(ctx context.Context, collection string, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/"+collection+"/"+url.PathEscape(id), "", nil, nil)
}

func (c *Client) List(ctx context.Context, collection string, updatedSince string, cursor string) (ListPage, error) {
	params := url.Values{}
	if updatedSince != "" {
		params.Set("updated_since", updatedSince)
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	params.Set("limit", "200")

	<-c.limiter
	endpoint := c.baseURL + "/v1/" + collection + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ListPage{}, err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ListPage{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ListPage{}, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed ListPage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ListPage{}, err
	}
	return parsed, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, idempotencyKey string, payload map[string]any, out any) error {
	<-c.limiter

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode remote response: %w", err)
		}
	}
	return nil
}
