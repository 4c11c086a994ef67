// Package twitter is a minimal read-only client for the Twitter API v2
// timeline endpoints.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.twitter.com"
	requestTimeout = 15 * time.Second
)

// Field sets requested on every timeline call.
var (
	expansions  = []string{"referenced_tweets.id", "attachments.media_keys", "author_id"}
	tweetFields = []string{"created_at", "author_id", "text", "referenced_tweets", "attachments"}
	userFields  = []string{"username", "name", "description", "public_metrics", "location", "connection_status"}
	mediaFields = []string{"url"}
)

// Config carries the credentials and identity of one account. AccessToken
// is a user-context token; when present it takes precedence over the
// app-only BearerToken and marks the client as elevated.
type Config struct {
	BearerToken string
	AccessToken string
	UserID      string
	Username    string
}

type Client struct {
	cfg     Config
	client  *http.Client
	baseURL string
}

func New(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: defaultBaseURL,
	}
}

// Ready reports whether any credential is configured.
func (c *Client) Ready() bool {
	return c.cfg.AccessToken != "" || c.cfg.BearerToken != ""
}

// Elevated reports whether the client holds a user-context token, which
// exempts its calls from the shared app budget.
func (c *Client) Elevated() bool {
	return c.cfg.AccessToken != ""
}

func (c *Client) UserID() string {
	return c.cfg.UserID
}

func (c *Client) Username() string {
	return c.cfg.Username
}

// Params narrows a timeline request.
type Params struct {
	SinceID    string
	StartTime  time.Time
	MaxResults int
}

// UserMentions fetches recent tweets mentioning the user.
func (c *Client) UserMentions(ctx context.Context, userID string, p Params) (*Timeline, error) {
	return c.timeline(ctx, fmt.Sprintf("/2/users/%s/mentions", url.PathEscape(userID)), nil, p)
}

// UserTweets fetches the user's own recent tweets.
func (c *Client) UserTweets(ctx context.Context, userID string, p Params) (*Timeline, error) {
	return c.timeline(ctx, fmt.Sprintf("/2/users/%s/tweets", url.PathEscape(userID)), nil, p)
}

// SearchRecent runs a recent-search query.
func (c *Client) SearchRecent(ctx context.Context, query string, p Params) (*Timeline, error) {
	extra := url.Values{"query": []string{query}}
	return c.timeline(ctx, "/2/tweets/search/recent", extra, p)
}

func (c *Client) timeline(ctx context.Context, path string, extra url.Values, p Params) (*Timeline, error) {
	q := url.Values{}
	for k, vs := range extra {
		q[k] = vs
	}
	q.Set("expansions", strings.Join(expansions, ","))
	q.Set("tweet.fields", strings.Join(tweetFields, ","))
	q.Set("user.fields", strings.Join(userFields, ","))
	q.Set("media.fields", strings.Join(mediaFields, ","))
	if p.MaxResults > 0 {
		q.Set("max_results", strconv.Itoa(p.MaxResults))
	}
	if p.SinceID != "" {
		q.Set("since_id", p.SinceID)
	}
	if !p.StartTime.IsZero() {
		q.Set("start_time", p.StartTime.UTC().Format(time.RFC3339))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tl Timeline
	if err := json.NewDecoder(resp.Body).Decode(&tl); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &tl, nil
}

func (c *Client) token() string {
	if c.cfg.AccessToken != "" {
		return c.cfg.AccessToken
	}
	return c.cfg.BearerToken
}
