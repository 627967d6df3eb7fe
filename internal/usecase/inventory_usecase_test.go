package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryUseCase_HasSufficientStock(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addProduct("p", "P", 1000, 3)

	tests := []struct {
		name      string
		productID string
		qty       int
		want      bool
	}{
		{"enough", "p", 3, true},
		{"too many", "p", 4, false},
		{"missing product", "ghost", 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := env.inventory.HasSufficientStock(ctx, tc.productID, tc.qty)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestInventoryUseCase_DecrementIsUnconditional(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addProduct("p", "P", 1000, 1)

	modified, err := env.inventory.Decrement(ctx, "p", 3)
	require.NoError(t, err)
	assert.True(t, modified)
	assert.Equal(t, -2, env.store.inventory("p"))

	modified, err = env.inventory.Decrement(ctx, "ghost", 1)
	require.NoError(t, err)
	assert.False(t, modified)
}

func TestInventoryUseCase_DecrementIfSufficient(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addProduct("p", "P", 1000, 2)

	ok, err := env.inventory.DecrementIfSufficient(ctx, "p", 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, env.store.inventory("p"))

	ok, err = env.inventory.DecrementIfSufficient(ctx, "p", 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, env.store.inventory("p"))

	_, err = env.inventory.DecrementIfSufficient(ctx, "p", 0)
	assert.ErrorIs(t, err, e.ErrInvalidQuantity)
}

func TestInventoryUseCase_Restock(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addProduct("p", "P", 1000, 0)

	require.NoError(t, env.inventory.Restock(ctx, "p", 4))
	assert.Equal(t, 4, env.store.inventory("p"))

	assert.ErrorIs(t, env.inventory.Restock(ctx, "ghost", 1), e.ErrProductNotFound)
}
