package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Display limits for error bodies that carry no detail field.
const (
	maxSubmitErrorLen = 200
	maxStatusErrorLen = 100
)

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
}

// readError builds an *Error from resp. The message comes from the JSON
// "detail" field when present. Any other valid JSON body keeps fallback; a
// non-JSON body is shown cut to limit runes.
func readError(resp *http.Response, fallback string, limit int) *Error {
	e := &Error{StatusCode: resp.StatusCode, Message: fallback}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return e
	}

	var parsed any
	if json.Unmarshal(body, &parsed) == nil {
		obj, ok := parsed.(map[string]any)
		if !ok {
			return e
		}
		switch detail := obj["detail"].(type) {
		case nil:
		case string:
			if detail != "" {
				e.Message = detail
			}
		default:
			if raw, err := json.Marshal(detail); err == nil {
				e.Message = truncate(string(raw), limit)
			}
		}
		return e
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		e.Message = truncate(text, limit)
	}
	return e
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
