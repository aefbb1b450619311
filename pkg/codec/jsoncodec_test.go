package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMarshalKeepsHTML(t *testing.T) {
	t.Parallel()

	b, err := JSON.Marshal(map[string]any{"html": "<b>&</b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<b>&</b>"}`, string(b))
}

func TestJSONUnmarshal(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in      string
		want    any
		wantErr string
	}{
		"object":           {in: `{"a":[1,"x",true]}`, want: map[string]any{"a": []any{1.0, "x", true}}},
		"trailing content": {in: `{"a":1} {"b":2}`, wantErr: "trailing content"},
		"malformed":        {in: `{"a":`, wantErr: "json decode"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var got any
			err := JSON.Unmarshal([]byte(tc.in), &got)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
