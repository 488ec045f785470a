package raindrop

import "time"

// Collection is a grouping in the Raindrop library.
type Collection struct {
	ID    int64  `json:"_id"`
	Title string `json:"title"`
	Count int    `json:"count"`
}

// Raindrop is one stored bookmark.
type Raindrop struct {
	ID         int64       `json:"_id"`
	Link       string      `json:"link"`
	Title      string      `json:"title"`
	Excerpt    string      `json:"excerpt"`
	Note       string      `json:"note"`
	Tags       []string    `json:"tags"`
	Cover      string      `json:"cover"`
	Created    time.Time   `json:"created"`
	Highlights []Highlight `json:"highlights"`
	Collection struct {
		ID int64 `json:"$id"`
	} `json:"collection"`
}

// Highlight is a text annotation on a raindrop.
type Highlight struct {
	ID      string    `json:"_id"`
	Text    string    `json:"text"`
	Note    string    `json:"note"`
	Color   string    `json:"color"`
	Created time.Time `json:"created"`
}

// Tag is a library tag with its usage count.
type Tag struct {
	Name  string `json:"_id"`
	Count int    `json:"count"`
}

// NewRaindrop is the create payload.
type NewRaindrop struct {
	Link       string       `json:"link"`
	Title      string       `json:"title,omitempty"`
	Excerpt    string       `json:"excerpt,omitempty"`
	Tags       []string     `json:"tags,omitempty"`
	Cover      string       `json:"cover,omitempty"`
	Created    string       `json:"created,omitempty"` // RFC3339
	Media      []MediaEntry `json:"media,omitempty"`
	Collection struct {
		ID int64 `json:"$id"`
	} `json:"collection"`
	PleaseParse *struct{} `json:"pleaseParse,omitempty"`
}

// MediaEntry is an attachment reference on a raindrop.
type MediaEntry struct {
	Link string `json:"link"`
}

// BatchResult reports the outcome of one item in a batch create.
type BatchResult struct {
	ID    int64
	Error string
}
