package tr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_DisabledRunsInline(t *testing.T) {
	m := NewManager(nil, false)

	called := false
	err := m.Do(context.Background(), func(ctx context.Context) error {
		called = true
		assert.False(t, InTransaction(ctx))
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, m.Enabled())
}

func TestManager_DisabledPropagatesError(t *testing.T) {
	m := NewManager(nil, false)
	boom := errors.New("boom")

	err := m.Do(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}
