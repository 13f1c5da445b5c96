package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Deterministic(t *testing.T) {
	keys := []string{"query", "location", "page", "remote_jobs_only", "date_posted"}
	values := map[string]interface{}{
		"query":            "platform engineer",
		"location":         "Berlin",
		"page":             1,
		"remote_jobs_only": true,
		"date_posted":      "month",
	}

	forward := map[string]interface{}{}
	for _, k := range keys {
		forward[k] = values[k]
	}
	backward := map[string]interface{}{}
	for i := len(keys) - 1; i >= 0; i-- {
		backward[keys[i]] = values[keys[i]]
	}

	assert.Equal(t,
		Fingerprint("jsearch", "/search", "GET", forward, nil),
		Fingerprint("jsearch", "/search", "GET", backward, nil),
	)
}

func TestFingerprint_NestedMapsAreNormalized(t *testing.T) {
	a := map[string]interface{}{"filters": map[string]interface{}{"remote": true, "location": "NYC"}}
	b := map[string]interface{}{"filters": map[string]interface{}{"location": "NYC", "remote": true}}

	assert.Equal(t,
		Fingerprint("svc", "e", "POST", nil, a),
		Fingerprint("svc", "e", "POST", nil, b),
	)
}

func TestFingerprint_Distinguishes(t *testing.T) {
	base := Fingerprint("jsearch", "/search", "GET", map[string]interface{}{"query": "go"}, nil)

	tests := []struct {
		name string
		fp   string
	}{
		{"service", Fingerprint("news", "/search", "GET", map[string]interface{}{"query": "go"}, nil)},
		{"endpoint", Fingerprint("jsearch", "/job-details", "GET", map[string]interface{}{"query": "go"}, nil)},
		{"method", Fingerprint("jsearch", "/search", "POST", map[string]interface{}{"query": "go"}, nil)},
		{"param value", Fingerprint("jsearch", "/search", "GET", map[string]interface{}{"query": "rust"}, nil)},
		{"body", Fingerprint("jsearch", "/search", "GET", map[string]interface{}{"query": "go"}, map[string]string{"x": "y"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, tt.fp)
		})
	}
}

func TestFingerprint_MethodNormalization(t *testing.T) {
	assert.Equal(t,
		Fingerprint("svc", "/x", "", nil, nil),
		Fingerprint("svc", "/x", "get", nil, nil),
	)
	assert.Len(t, Fingerprint("svc", "/x", "GET", nil, nil), 64)
}

func TestFingerprint_EmptyAndNilParamsMatch(t *testing.T) {
	assert.Equal(t,
		Fingerprint("svc", "/x", "GET", nil, nil),
		Fingerprint("svc", "/x", "GET", map[string]interface{}{}, nil),
	)
}

func TestFingerprint_NilParamsAreIgnored(t *testing.T) {
	assert.Equal(t,
		Fingerprint("jsearch", "/search", "GET", map[string]interface{}{"query": "go"}, nil),
		Fingerprint("jsearch", "/search", "GET", map[string]interface{}{"query": "go", "page": nil}, nil),
	)
}
