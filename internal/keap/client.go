// Package keap is a small client for the two CRM endpoints the roster sync
// needs: the contacts-by-tag listing and the contact detail.
package keap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.infusionsoft.com/crm/rest/v1"

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("keap api error %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	limiter *rate.Limiter
}

type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit caps outgoing requests to rps per second. rps <= 0 disables
// limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func NewClient(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid keap base url: %w", err)
	}
	if tokens == nil {
		return nil, errors.New("keap token source is nil")
	}

	c := &Client{
		baseURL: baseURL,
		tokens:  tokens,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type taggedContactsResponse struct {
	Contacts []struct {
		Contact struct {
			ID int64 `json:"id"`
		} `json:"contact"`
	} `json:"contacts"`
	Count int `json:"count"`
}

// ListTaggedContactIDs returns one page of contact ids carrying tagID.
func (c *Client) ListTaggedContactIDs(ctx context.Context, tagID int64, limit, offset int) ([]int64, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	body, err := c.get(ctx, "/tags/"+strconv.FormatInt(tagID, 10)+"/contacts", params)
	if err != nil {
		return nil, err
	}

	var parsed taggedContactsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode tagged contacts: %w", err)
	}

	ids := make([]int64, 0, len(parsed.Contacts))
	for _, item := range parsed.Contacts {
		ids = append(ids, item.Contact.ID)
	}
	return ids, nil
}

// GetContact returns the contact detail, custom fields included, exactly as
// the API sent it.
func (c *Client) GetContact(ctx context.Context, id int64) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("optional_properties", "custom_fields")

	body, err := c.get(ctx, "/contacts/"+strconv.FormatInt(id, 10), params)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("contact %d: response is not valid json", id)
	}
	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
