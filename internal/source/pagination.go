package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type pageCursor struct {
	CurrentPage int `json:"currentPage"`
	LastPage    int `json:"lastPage"`
}

// FetchAll drains a paginated listing. It requests page=0,1,2,... and
// stops once the envelope reports currentPage == lastPage (both 0-indexed
// and inclusive). Items of field key are returned in page order. Any
// failing page fails the whole call; partial results are never returned.
func FetchAll[T any](ctx context.Context, c *Client, path, key string) ([]T, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var out []T
	for page := 0; ; page++ {
		pagePath := fmt.Sprintf("%s%spage=%d", path, sep, page)
		envelope, err := c.Fetch(ctx, pagePath)
		if err != nil {
			return nil, err
		}
		var items []T
		if err := decodeField(envelope, pagePath, key, &items); err != nil {
			return nil, err
		}
		out = append(out, items...)

		cursor, err := decodeCursor(envelope)
		if err != nil {
			return nil, &RemoteError{Path: pagePath, Err: err}
		}
		// The requested page bounds the loop as well, so a server that keeps
		// echoing an old currentPage cannot make us spin.
		if cursor.CurrentPage >= cursor.LastPage || page >= cursor.LastPage {
			return out, nil
		}
	}
}

func decodeCursor(envelope map[string]json.RawMessage) (pageCursor, error) {
	var cursor pageCursor
	current, ok := envelope["currentPage"]
	if !ok {
		return cursor, fmt.Errorf("paginated response has no currentPage")
	}
	last, ok := envelope["lastPage"]
	if !ok {
		return cursor, fmt.Errorf("paginated response has no lastPage")
	}
	if err := json.Unmarshal(current, &cursor.CurrentPage); err != nil {
		return cursor, fmt.Errorf("decode currentPage: %w", err)
	}
	if err := json.Unmarshal(last, &cursor.LastPage); err != nil {
		return cursor, fmt.Errorf("decode lastPage: %w", err)
	}
	return cursor, nil
}
