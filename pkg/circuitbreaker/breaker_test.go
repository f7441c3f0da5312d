package circuitbreaker

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_TripsAfterFailures(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.OnStateChange = nil
	cb := New(cfg)

	boom := stderrors.New("boom")
	for i := 0; i < 3; i++ {
		_, err := Execute(cb, func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
	}

	assert.True(t, IsOpen(cb))

	called := false
	_, err := Execute(cb, func() (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, called)
}

func TestExecute_ReturnsTypedResult(t *testing.T) {
	cb := New(DefaultConfig("ok"))

	v, err := Execute(cb, func() ([]byte, error) { return []byte("x"), nil })
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), v)
	assert.False(t, IsOpen(cb))
}
