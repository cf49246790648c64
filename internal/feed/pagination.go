package feed

import (
	"encoding/base64"
	"encoding/json"
)

// Cursor marks a position in the ranked feed by the last item served.
// Anchoring on (score, id) instead of an index keeps pages stable when
// new items land above the reader's position.
type Cursor struct {
	Score float64 `json:"score"`
	ID    string  `json:"id"`
}

// Encode serializes the cursor to an opaque URL-safe token.
func (c Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor parses a cursor token. A malformed or empty token
// decodes to (zero, false), which callers treat as "start from the top".
func DecodeCursor(token string) (Cursor, bool) {
	if token == "" {
		return Cursor{}, false
	}
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, false
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil || c.ID == "" {
		return Cursor{}, false
	}
	return c, true
}

// Page is one slice of the ranked feed plus the token for the next one.
type Page struct {
	Items      []RankedItem `json:"items"`
	NextCursor string       `json:"nextCursor,omitempty"`
	HasMore    bool         `json:"hasMore"`
	Total      int          `json:"total"`
}

// Paginate returns the next limit items after the cursor position. An
// unrecognized cursor falls back to the first page rather than erroring,
// so stale bookmarks degrade to a refresh instead of a broken client.
func Paginate(ranked []RankedItem, token string, limit int) Page {
	start := 0
	if cursor, ok := DecodeCursor(token); ok {
		start = resume(ranked, cursor)
	}

	end := start + limit
	if end > len(ranked) {
		end = len(ranked)
	}

	page := Page{
		Items:   ranked[start:end],
		HasMore: end < len(ranked),
		Total:   len(ranked),
	}
	if page.HasMore && len(page.Items) > 0 {
		last := page.Items[len(page.Items)-1]
		page.NextCursor = Cursor{Score: last.Score, ID: last.ID}.Encode()
	}
	return page
}

// resume locates the first index after the cursor. If the exact
// (score, id) pair is still present the page continues right after it;
// if the item vanished between requests, resume at the first entry
// scoring strictly below the cursor so nothing already served repeats.
func resume(ranked []RankedItem, cursor Cursor) int {
	for i, item := range ranked {
		if item.Score == cursor.Score && item.ID == cursor.ID {
			return i + 1
		}
	}
	for i, item := range ranked {
		if item.Score < cursor.Score {
			return i
		}
	}
	return len(ranked)
}
