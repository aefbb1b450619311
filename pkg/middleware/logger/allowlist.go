package logger

import (
	"net/http"
	"strings"
)

const maxLoggedBody = 1 << 16

// bodyPolicy keeps request bodies out of the access log unless the path is
// listed and the body is small JSON or form data.
type bodyPolicy struct {
	paths map[string]struct{}
}

func newBodyPolicy(paths []string) bodyPolicy {
	p := bodyPolicy{paths: make(map[string]struct{}, len(paths))}
	for _, path := range paths {
		if path = strings.TrimSpace(path); path != "" {
			p.paths[path] = struct{}{}
		}
	}
	return p
}

// wants reports whether the body of r is worth reading at all.
func (p bodyPolicy) wants(r *http.Request) bool {
	if len(p.paths) == 0 || r.Body == nil {
		return false
	}
	if r.ContentLength <= 0 || r.ContentLength > maxLoggedBody {
		return false
	}
	_, ok := p.paths[r.URL.Path]
	return ok
}

func (p bodyPolicy) allows(r *http.Request, body []byte) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	if len(body) == 0 || len(body) > maxLoggedBody {
		return false
	}
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/json") || strings.HasPrefix(ct, "application/x-www-form-urlencoded")
}
