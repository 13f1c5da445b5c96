// Package providers holds the pieces shared by the job, forum and trend
// clients: the search query shape, the untyped-to-typed decoding boundary and
// text normalization.
package providers

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mitchellh/mapstructure"

	"readiness-workers/internal/models"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

type Filters struct {
	Location  string           `json:"location,omitempty"`
	Remote    *bool            `json:"remote,omitempty"`
	DateRange models.DateRange `json:"dateRange,omitempty"`
}

type SearchQuery struct {
	Query   string  `json:"query"`
	Limit   int     `json:"limit"`
	Filters Filters `json:"filters"`
}

// PageSize clamps the requested limit into [1, max].
func (q SearchQuery) PageSize(max int) int {
	n := q.Limit
	if n <= 0 {
		n = DefaultLimit
	}
	if n > max {
		n = max
	}
	return n
}

// Decode maps an untyped JSON value onto out using json tags. Numbers and
// strings are converted loosely since providers are inconsistent about both.
func Decode(raw interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// DecodeItems decodes each element of a raw JSON array into T and keeps the
// ones accepted by valid. Elements that fail either step are counted as
// dropped rather than failing the whole batch.
func DecodeItems[T any](raw interface{}, valid func(*T) bool) (items []T, dropped int) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, 0
	}
	items = make([]T, 0, len(list))
	for _, el := range list {
		var item T
		if err := Decode(el, &item); err != nil {
			dropped++
			continue
		}
		if valid != nil && !valid(&item) {
			dropped++
			continue
		}
		items = append(items, item)
	}
	return items, dropped
}

// Field walks nested objects by key and returns the value found, or nil.
func Field(raw map[string]interface{}, path ...string) interface{} {
	var cur interface{} = raw
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

var strict = bluemonday.StrictPolicy()

// CleanText strips markup, unescapes entities and collapses whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "…"
}
