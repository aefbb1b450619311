package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVars(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		query string
		form  string
		want  map[string]string
	}{
		"single pair": {
			query: "name=Bob",
			want:  map[string]string{"name": "Bob"},
		},
		"last occurrence wins": {
			query: "a=1&b=2&a=3",
			want:  map[string]string{"a": "3", "b": "2"},
		},
		"bare key and empty value": {
			query: "flag&empty=",
			want:  map[string]string{"flag": "", "empty": ""},
		},
		"percent and plus decoding": {
			query: "msg=hello+world%21&k%20ey=v",
			want:  map[string]string{"msg": "hello world!", "k ey": "v"},
		},
		"malformed pairs dropped": {
			query: "good=1&bad=%zz&%gg=x&=novalue&&also=2",
			want:  map[string]string{"good": "1", "also": "2"},
		},
		"semicolon is not a separator": {
			query: "a=1;b=2",
			want:  map[string]string{"a": "1;b=2"},
		},
		"form overrides query": {
			query: "name=Bob&x=1",
			form:  "name=Alice&y=2",
			want:  map[string]string{"name": "Alice", "x": "1", "y": "2"},
		},
		"empty input": {
			want: map[string]string{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := ParseVars(tc.query, []byte(tc.form))
			assert.Equal(t, tc.want, got)
		})
	}
}
