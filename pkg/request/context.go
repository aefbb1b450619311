package request

import (
	"mime"
	"strings"
)

// Context is the read-only snapshot of a request handed to a handler. All
// fields are copies and stay valid after the token expires.
type Context struct {
	PeerAddr string
	URL      string
	Query    string
	Body     []byte
	Vars     map[string]string

	Method string
	Path   string

	// User and Role come from the verified bearer assertion; both are empty
	// when no guard is configured.
	User string
	Role string
}

// Build snapshots the request behind tok. Variables are parsed once here.
func Build(tok *Token) *Context {
	body := make([]byte, len(tok.Body()))
	copy(body, tok.Body())

	var form []byte
	if isForm(tok.ContentType()) {
		form = body
	}

	return &Context{
		PeerAddr: strings.Clone(tok.PeerAddr()),
		URL:      strings.Clone(tok.URL()),
		Query:    strings.Clone(tok.Query()),
		Body:     body,
		Vars:     ParseVars(tok.Query(), form),
		Method:   strings.Clone(tok.Method()),
		Path:     strings.Clone(tok.Path()),
	}
}

// Var returns a parsed variable.
func (c *Context) Var(name string) (string, bool) {
	v, ok := c.Vars[name]
	return v, ok
}

func isForm(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/x-www-form-urlencoded"
}
