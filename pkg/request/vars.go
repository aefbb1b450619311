package request

import (
	"net/url"
	"strings"
)

// ParseVars collects key/value pairs from the raw query and an optional
// urlencoded form body. Pairs are separated by '&'; a bare key maps to "".
// Pairs with an empty key or a bad percent-encoding are dropped. The last
// occurrence of a key wins, so form values override query values.
func ParseVars(query string, form []byte) map[string]string {
	vars := make(map[string]string)
	parsePairs(vars, query)
	if len(form) > 0 {
		parsePairs(vars, string(form))
	}
	return vars
}

func parsePairs(dst map[string]string, raw string) {
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil || key == "" {
			continue
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			continue
		}
		dst[key] = val
	}
}
