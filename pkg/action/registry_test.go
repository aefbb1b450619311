package action_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-lua/pkg/action"
	"github.com/joeydtaylor/steeze-lua/pkg/request"
)

type namedHandler string

func (namedHandler) ServeAction(*request.Token, *request.Context) error { return nil }

func TestRegistryLastWriteWins(t *testing.T) {
	t.Parallel()

	reg := action.NewRegistry()
	require.NoError(t, reg.Register("/hello", namedHandler("first")))
	require.NoError(t, reg.Register("/hello", namedHandler("second")))
	require.NoError(t, reg.Register("/other", namedHandler("other")))

	h, err := reg.Lookup("/hello")
	require.NoError(t, err)
	assert.Equal(t, namedHandler("second"), h)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"/hello", "/other"}, reg.Paths())
}

func TestRegistryLookupNotFound(t *testing.T) {
	t.Parallel()

	reg := action.NewRegistry()
	h, err := reg.Lookup("/missing")
	assert.Nil(t, h)
	assert.ErrorIs(t, err, action.ErrNotFound)
}

func TestRegistryInvalidArguments(t *testing.T) {
	t.Parallel()

	var nilFunc action.HandlerFunc

	tests := map[string]struct {
		path string
		h    action.Handler
	}{
		"empty path":       {path: "", h: namedHandler("x")},
		"nil handler":      {path: "/a", h: nil},
		"nil handler func": {path: "/a", h: nilFunc},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			reg := action.NewRegistry()
			err := reg.Register(tc.path, tc.h)
			assert.True(t, errors.Is(err, action.ErrInvalidArgument))
			assert.Equal(t, 0, reg.Len())
		})
	}
}

func TestRegistryHandlerFunc(t *testing.T) {
	t.Parallel()

	called := false
	reg := action.NewRegistry()
	require.NoError(t, reg.Register("/f", action.HandlerFunc(func(*request.Token, *request.Context) error {
		called = true
		return nil
	})))

	h, err := reg.Lookup("/f")
	require.NoError(t, err)
	require.NoError(t, h.ServeAction(nil, nil))
	assert.True(t, called)
}

func TestRegistryConcurrentRegisterLookup(t *testing.T) {
	t.Parallel()

	reg := action.NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = reg.Register("/p", namedHandler("v"))
		}()
		go func() {
			defer wg.Done()
			_, _ = reg.Lookup("/p")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reg.Len())
}
