// Package twitter fetches the authenticated user's bookmarks from the X API
// v2, one page per call, honoring the rate limiter on every request.
package twitter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/user/rainhub/internal/auth"
	"github.com/user/rainhub/internal/ratelimit"
)

const (
	defaultBaseURL = "https://api.x.com/2"

	// maxRetries bounds 429 retries for a single page fetch.
	maxRetries = 3

	// retryBuffer pads the reset time reported by a 429 response.
	retryBuffer = 5 * time.Second
)

// Client wraps the bookmarks endpoint. Each client owns its rate limiter;
// nothing is shared across instances.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     auth.TokenProvider
	limiter    *ratelimit.Limiter
	log        logrus.FieldLogger

	userID string // cached after the first lookup

	// injectable for tests
	now   func() time.Time
	sleep func(time.Duration)
}

func NewClient(tokens auth.TokenProvider, limiter *ratelimit.Limiter, log logrus.FieldLogger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		tokens:     tokens,
		limiter:    limiter,
		log:        log,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// FetchPage retrieves one page of bookmarks with author and media lookups.
// cursor "" fetches from the start. 429 responses are retried after sleeping
// to the reported window reset, up to maxRetries attempts.
func (c *Client) FetchPage(cursor string, pageSize int) (*Page, error) {
	userID, err := c.resolveUserID()
	if err != nil {
		return nil, err
	}

	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 100 {
		pageSize = 100 // endpoint maximum
	}

	q := url.Values{}
	q.Set("max_results", strconv.Itoa(pageSize))
	q.Set("tweet.fields", "created_at,author_id,attachments")
	q.Set("expansions", "author_id,attachments.media_keys")
	q.Set("user.fields", "name,username")
	q.Set("media.fields", "url,preview_image_url,type")
	if cursor != "" {
		q.Set("pagination_token", cursor)
	}

	path := fmt.Sprintf("/users/%s/bookmarks", userID)

	var body []byte
	for attempt := 1; ; attempt++ {
		var status int
		var header http.Header
		body, status, header, err = c.do(path, q)
		if err != nil {
			return nil, err
		}
		if status == http.StatusTooManyRequests {
			if attempt >= maxRetries {
				return nil, fmt.Errorf("bookmarks fetch rate limited after %d attempts", attempt)
			}
			c.waitForReset(header)
			continue
		}
		if status != http.StatusOK {
			return nil, statusError("bookmarks fetch", status, body)
		}
		break
	}

	var resp bookmarksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks response: %w", err)
	}

	page := &Page{
		Tweets:     resp.Data,
		Users:      make(map[string]User, len(resp.Includes.Users)),
		Media:      make(map[string]Media, len(resp.Includes.Media)),
		NextCursor: resp.Meta.NextToken,
	}
	for _, u := range resp.Includes.Users {
		page.Users[u.ID] = u
	}
	for _, m := range resp.Includes.Media {
		page.Media[m.MediaKey] = m
	}
	return page, nil
}

// resolveUserID looks up the authenticated user once and caches the ID.
func (c *Client) resolveUserID() (string, error) {
	if c.userID != "" {
		return c.userID, nil
	}

	body, status, _, err := c.do("/users/me", nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", statusError("user lookup", status, body)
	}

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse user lookup: %w", err)
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("user lookup returned no ID")
	}

	c.userID = resp.Data.ID
	return c.userID, nil
}

// do issues one throttled GET and reads the body. The request is recorded
// with the limiter regardless of outcome; response headers update the
// limiter's budget estimate.
func (c *Client) do(path string, q url.Values) ([]byte, int, http.Header, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, 0, nil, err
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	c.limiter.Throttle()
	resp, err := c.httpClient.Do(req)
	c.limiter.RecordRequest()
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()

	c.limiter.RecordResponse(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, nil, err
	}
	return body, resp.StatusCode, resp.Header, nil
}

// waitForReset sleeps until the window reset reported by a 429 response,
// plus a small buffer. Without a usable header it falls back to the buffer
// alone.
func (c *Client) waitForReset(h http.Header) {
	wait := retryBuffer
	if v := h.Get("x-rate-limit-reset"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			if until := time.Unix(sec, 0).Sub(c.now()); until > 0 {
				wait = until + retryBuffer
			}
		}
	}
	c.log.WithField("wait", wait.String()).Warn("rate limited by source API, backing off")
	c.sleep(wait)
}

func statusError(op string, status int, body []byte) error {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil {
		if msg := e.message(); msg != "" {
			return fmt.Errorf("%s failed with status %d: %s", op, status, msg)
		}
	}
	return fmt.Errorf("%s failed with status %d", op, status)
}
