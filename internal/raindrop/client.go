// Package raindrop is a thin client for the Raindrop.io REST API: the
// destination side of the importer plus the library-management surface
// (collections, raindrops, tags, highlights).
package raindrop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/user/rainhub/internal/auth"
)

const defaultBaseURL = "https://api.raindrop.io/rest/v1"

type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     auth.TokenProvider
}

func NewClient(tokens auth.TokenProvider) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		tokens:     tokens,
	}
}

// errorEnvelope is Raindrop's failure shape: {"result":false,"errorMessage":...}.
type errorEnvelope struct {
	Result       bool   `json:"result"`
	ErrorMessage string `json:"errorMessage"`
	Error        string `json:"error"`
}

func (c *Client) do(method, path string, q url.Values, payload, out interface{}) error {
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorEnvelope
		if json.Unmarshal(data, &e) == nil {
			msg := e.ErrorMessage
			if msg == "" {
				msg = e.Error
			}
			if msg != "" {
				return fmt.Errorf("raindrop API %s %s: status %d: %s", method, path, resp.StatusCode, msg)
			}
		}
		return fmt.Errorf("raindrop API %s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse raindrop response: %w", err)
		}
	}
	return nil
}

// Collections lists the user's root collections.
func (c *Client) Collections() ([]Collection, error) {
	var resp struct {
		Items []Collection `json:"items"`
	}
	if err := c.do(http.MethodGet, "/collections", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CreateCollection makes a new root collection.
func (c *Client) CreateCollection(title string) (*Collection, error) {
	var resp struct {
		Item Collection `json:"item"`
	}
	payload := map[string]string{"title": title}
	if err := c.do(http.MethodPost, "/collection", nil, payload, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

// ResolveCollection finds a collection by title or creates it.
func (c *Client) ResolveCollection(title string) (*Collection, error) {
	cols, err := c.Collections()
	if err != nil {
		return nil, err
	}
	for i := range cols {
		if cols[i].Title == title {
			return &cols[i], nil
		}
	}
	return c.CreateCollection(title)
}

// CreateRaindrop stores one bookmark and returns its ID.
func (c *Client) CreateRaindrop(r NewRaindrop) (int64, error) {
	var resp struct {
		Item Raindrop `json:"item"`
	}
	if err := c.do(http.MethodPost, "/raindrop", nil, r, &resp); err != nil {
		return 0, err
	}
	return resp.Item.ID, nil
}

// CreateMany stores up to 100 bookmarks in one batch call and returns
// per-item results in input order.
func (c *Client) CreateMany(items []NewRaindrop) ([]BatchResult, error) {
	payload := map[string]interface{}{"items": items}
	var resp struct {
		Items []Raindrop `json:"items"`
	}
	if err := c.do(http.MethodPost, "/raindrops", nil, payload, &resp); err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(items))
	for i := range items {
		if i < len(resp.Items) {
			results[i].ID = resp.Items[i].ID
		} else {
			results[i].Error = "no result returned for item"
		}
	}
	return results, nil
}

// Raindrops lists one page of a collection, optionally filtered by search.
func (c *Client) Raindrops(collectionID int64, page, perPage int, search string) ([]Raindrop, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("perpage", strconv.Itoa(perPage))
	if search != "" {
		q.Set("search", search)
	}

	var resp struct {
		Items []Raindrop `json:"items"`
	}
	path := fmt.Sprintf("/raindrops/%d", collectionID)
	if err := c.do(http.MethodGet, path, q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// UpdateRaindrop applies a partial update to one bookmark.
func (c *Client) UpdateRaindrop(id int64, fields map[string]interface{}) error {
	return c.do(http.MethodPut, fmt.Sprintf("/raindrop/%d", id), nil, fields, nil)
}

// DeleteRaindrop removes one bookmark.
func (c *Client) DeleteRaindrop(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/raindrop/%d", id), nil, nil, nil)
}

// Tags lists tags; collectionID 0 means the whole library.
func (c *Client) Tags(collectionID int64) ([]Tag, error) {
	path := "/tags"
	if collectionID != 0 {
		path = fmt.Sprintf("/tags/%d", collectionID)
	}
	var resp struct {
		Items []Tag `json:"items"`
	}
	if err := c.do(http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// RenameTag replaces one tag name across the library.
func (c *Client) RenameTag(oldName, newName string) error {
	payload := map[string]interface{}{"tags": []string{oldName}, "replace": newName}
	return c.do(http.MethodPut, "/tags", nil, payload, nil)
}

// DeleteTags removes tags from every bookmark carrying them.
func (c *Client) DeleteTags(names []string) error {
	payload := map[string]interface{}{"tags": names}
	return c.do(http.MethodDelete, "/tags", nil, payload, nil)
}

// Highlights returns the annotations on one bookmark.
func (c *Client) Highlights(raindropID int64) ([]Highlight, error) {
	var resp struct {
		Item Raindrop `json:"item"`
	}
	if err := c.do(http.MethodGet, fmt.Sprintf("/raindrop/%d", raindropID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Item.Highlights, nil
}
