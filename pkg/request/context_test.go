package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContext(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/hello?name=Bob", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	tok := NewToken(httptest.NewRecorder(), req, []byte("payload"))

	ctx := Build(tok)

	assert.Equal(t, "10.0.0.7:51234", ctx.PeerAddr)
	assert.Equal(t, "/hello?name=Bob", ctx.URL)
	assert.Equal(t, "name=Bob", ctx.Query)
	assert.Equal(t, []byte("payload"), ctx.Body)
	assert.Equal(t, map[string]string{"name": "Bob"}, ctx.Vars)
	assert.Equal(t, http.MethodGet, ctx.Method)
	assert.Equal(t, "/hello", ctx.Path)

	v, ok := ctx.Var("name")
	require.True(t, ok)
	assert.Equal(t, "Bob", v)
}

func TestBuildContextCopiesBody(t *testing.T) {
	t.Parallel()

	body := []byte("original")
	req := httptest.NewRequest(http.MethodPost, "/echo", nil)
	tok := NewToken(httptest.NewRecorder(), req, body)

	ctx := Build(tok)
	body[0] = 'X'

	assert.Equal(t, "original", string(ctx.Body))
}

func TestBuildContextEmptyBody(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := Build(NewToken(httptest.NewRecorder(), req, nil))

	assert.NotNil(t, ctx.Body)
	assert.Empty(t, ctx.Body)
	assert.Empty(t, ctx.Vars)
}

func TestBuildContextFormBody(t *testing.T) {
	t.Parallel()

	form := "name=Alice&age=30&bad=%x"
	req := httptest.NewRequest(http.MethodPost, "/submit?name=Bob&src=q", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	tok := NewToken(httptest.NewRecorder(), req, []byte(form))

	ctx := Build(tok)

	assert.Equal(t, map[string]string{"name": "Alice", "age": "30", "src": "q"}, ctx.Vars)
	assert.Equal(t, form, string(ctx.Body))
}

func TestBuildContextIgnoresNonFormBody(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/json", nil)
	req.Header.Set("Content-Type", "application/json")
	tok := NewToken(httptest.NewRecorder(), req, []byte(`a=1`))

	assert.Empty(t, Build(tok).Vars)
}
