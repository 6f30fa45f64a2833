package handler

import (
	"net/http"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// parseDateQuery reads an optional YYYY-MM-DD query value. A full timestamp is
// truncated to its date part.
func parseDateQuery(r *http.Request, key string) (*time.Time, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return nil, nil
	}
	if len(value) > len(dateLayout) {
		value = value[:len(dateLayout)]
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
