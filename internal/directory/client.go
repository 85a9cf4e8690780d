package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client talks to a directory server from hosts (claim/refresh/release) and
// joiners (resolve).
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Claim(ctx context.Context, code, addr string) error {
	body, _ := json.Marshal(ClaimRequest{Code: code, Addr: addr})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("directory claim: %w", err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusCreated:
		return nil
	case http.StatusConflict:
		return ErrCodeTaken
	default:
		return fmt.Errorf("directory claim: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) Refresh(ctx context.Context, code, addr string) error {
	body, _ := json.Marshal(ClaimRequest{Addr: addr})
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.sessionURL(code), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("directory refresh: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("directory refresh: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) Resolve(ctx context.Context, code string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionURL(code), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("directory resolve: %w", err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		var rr ResolveResponse
		if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
			return "", fmt.Errorf("directory resolve: %w", err)
		}
		return rr.Addr, nil
	case http.StatusNotFound:
		return "", ErrCodeUnknown
	default:
		return "", fmt.Errorf("directory resolve: unexpected status %d", resp.StatusCode)
	}
}

// Release is best-effort; hosts call it during teardown.
func (c *Client) Release(code, addr string) {
	req, err := http.NewRequest(http.MethodDelete, c.sessionURL(code)+"?addr="+url.QueryEscape(addr), nil)
	if err != nil {
		return
	}
	if resp, err := c.HTTP.Do(req); err == nil {
		resp.Body.Close()
	}
}

func (c *Client) sessionURL(code string) string {
	return c.BaseURL + "/v1/sessions/" + url.PathEscape(code)
}
