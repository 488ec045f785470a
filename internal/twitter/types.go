package twitter

import "time"

// Tweet is one bookmarked post as returned by the v2 API.
type Tweet struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	AuthorID    string    `json:"author_id"`
	CreatedAt   time.Time `json:"created_at"`
	Attachments struct {
		MediaKeys []string `json:"media_keys"`
	} `json:"attachments"`
}

// User is an author record from the response's included lookups.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Media is an attachment record from the included lookups.
type Media struct {
	MediaKey        string `json:"media_key"`
	Type            string `json:"type"` // photo, video, animated_gif
	URL             string `json:"url"`
	PreviewImageURL string `json:"preview_image_url"`
}

// Page is one page of bookmarks with its denormalized lookups. NextCursor is
// empty when no more pages exist.
type Page struct {
	Tweets     []Tweet
	Users      map[string]User  // keyed by user ID
	Media      map[string]Media // keyed by media key
	NextCursor string
}

// bookmarksResponse mirrors the wire shape of GET /2/users/:id/bookmarks.
type bookmarksResponse struct {
	Data     []Tweet `json:"data"`
	Includes struct {
		Users []User  `json:"users"`
		Media []Media `json:"media"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

// apiError mirrors the v2 error envelope.
type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (e *apiError) message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Title != "" {
		return e.Title
	}
	if len(e.Errors) > 0 {
		return e.Errors[0].Message
	}
	return ""
}
