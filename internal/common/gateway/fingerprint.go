package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type fingerprintTuple struct {
	Service  string                 `json:"service"`
	Endpoint string                 `json:"endpoint"`
	Method   string                 `json:"method"`
	Params   map[string]interface{} `json:"params,omitempty"`
	Body     interface{}            `json:"body,omitempty"`
}

// Fingerprint derives the cache key for a provider request. encoding/json
// writes map keys in sorted order at every depth, so parameter maps that hold
// the same pairs always hash the same regardless of insertion order.
func Fingerprint(service, endpoint, method string, params map[string]interface{}, body interface{}) string {
	tuple := fingerprintTuple{
		Service:  service,
		Endpoint: endpoint,
		Method:   normalizeMethod(method),
		Params:   wireParams(params),
		Body:     body,
	}

	encoded, err := json.Marshal(tuple)
	if err != nil {
		// Unencodable bodies (channels, funcs) still get a stable key.
		encoded = []byte(fmt.Sprintf("%s|%s|%s|%v|%v", service, endpoint, tuple.Method, params, body))
	}

	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

// wireParams drops nil values, which addParam never sends.
func wireParams(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

func normalizeMethod(method string) string {
	if method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(method)
}
