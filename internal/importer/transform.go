package importer

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/user/rainhub/internal/raindrop"
	"github.com/user/rainhub/internal/twitter"
)

// ImportTag marks every imported raindrop so later runs can recognize the
// import set.
const ImportTag = "x-bookmarks"

const titleTextLimit = 100

// BuildRaindrop maps one tweet to a destination payload. It is total: a
// missing author or media lookup degrades to deterministic placeholders
// instead of failing. The synthesized link always embeds the tweet ID so a
// later duplicate scan can recover it.
func BuildRaindrop(t twitter.Tweet, users map[string]twitter.User, media map[string]twitter.Media, collectionID int64) raindrop.NewRaindrop {
	// x.com/i/status/<id> is the canonical form X itself serves when the
	// author is unknown (suspended or deleted accounts).
	username := "i"
	author := "unknown author"
	if u, ok := users[t.AuthorID]; ok && u.Username != "" {
		username = u.Username
		author = "@" + u.Username
	}

	// Truncate on rune boundaries; a byte slice could split a multi-byte
	// character and send invalid UTF-8 downstream.
	text := t.Text
	if utf8.RuneCountInString(text) > titleTextLimit {
		text = string([]rune(text)[:titleTextLimit]) + "..."
	}

	r := raindrop.NewRaindrop{
		Link:    fmt.Sprintf("https://x.com/%s/status/%s", username, t.ID),
		Title:   fmt.Sprintf("%s: %s", author, text),
		Excerpt: t.Text,
		Tags:    []string{ImportTag},
	}
	r.Collection.ID = collectionID

	if !t.CreatedAt.IsZero() {
		r.Created = t.CreatedAt.Format(time.RFC3339)
	}

	for _, key := range t.Attachments.MediaKeys {
		m, ok := media[key]
		if !ok {
			continue
		}
		link := m.URL
		if link == "" {
			link = m.PreviewImageURL
		}
		if link == "" {
			continue
		}
		if r.Cover == "" {
			r.Cover = link
		}
		r.Media = append(r.Media, raindrop.MediaEntry{Link: link})
	}

	return r
}
