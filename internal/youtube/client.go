// Package youtube looks up video metadata with the YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNotFound is returned when the API knows no video with the id.
	ErrNotFound = errors.New("video not found")
	// ErrInvalidReference is returned for requests that name no video.
	ErrInvalidReference = errors.New("not a youtube video reference")
	// ErrMissingAPIKey is returned by lookups on a client without a key.
	ErrMissingAPIKey = errors.New("youtube api key not configured")
)

const (
	// DefaultBaseURL is the public Data API endpoint.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"
	defaultTimeout = 10 * time.Second
	userAgent      = "roomdj/1.0 (https://github.com/llehouerou/roomdj)"
)

// Video is the metadata of a looked-up video.
type Video struct {
	ID    string
	Title string
}

// Client is a YouTube Data API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a client. An empty baseURL uses DefaultBaseURL and a
// non-positive timeout uses ten seconds.
func New(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Lookup resolves a video id or URL to its metadata.
func (c *Client) Lookup(ctx context.Context, ref string) (*Video, error) {
	id, err := ExtractID(ref)
	if err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("id", id)
	params.Set("key", c.apiKey)

	reqURL := c.baseURL + "/videos?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The request URL carries the API key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, errors.Wrap(err, "http request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error.Message != "" {
			return nil, errors.Newf("unexpected status: %s: %s", resp.Status, apiErr.Error.Message)
		}
		return nil, errors.Newf("unexpected status: %s", resp.Status)
	}

	var result videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if len(result.Items) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%s", id)
	}

	item := result.Items[0]
	return &Video{ID: item.ID, Title: item.Snippet.Title}, nil
}
