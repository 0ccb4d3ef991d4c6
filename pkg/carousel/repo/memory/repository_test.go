package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-carousel/pkg/carousel"
	"github.com/tendant/simple-carousel/pkg/carousel/repo/memory"
)

func TestMemoryRepository_ItemOperations(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	owner := carousel.OwnerRef{KindID: 1, ID: 7}

	t.Run("CreateItem assigns sequential ids", func(t *testing.T) {
		first := &carousel.Item{OwnerKindID: owner.KindID, OwnerID: owner.ID, Position: 999}
		second := &carousel.Item{OwnerKindID: owner.KindID, OwnerID: owner.ID, Position: 999}

		require.NoError(t, repo.CreateItem(ctx, first))
		require.NoError(t, repo.CreateItem(ctx, second))

		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, int64(2), second.ID)
		assert.False(t, first.CreatedAt.IsZero())
	})

	t.Run("GetItem returns a copy", func(t *testing.T) {
		item, err := repo.GetItem(ctx, 1)
		require.NoError(t, err)
		item.Title = "changed"

		again, err := repo.GetItem(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "", again.Title)
	})

	t.Run("GetItem_NotFound", func(t *testing.T) {
		item, err := repo.GetItem(ctx, 999)
		assert.Nil(t, item)
		assert.Equal(t, carousel.ErrItemNotFound, err)
	})

	t.Run("UpdateItem", func(t *testing.T) {
		item, err := repo.GetItem(ctx, 2)
		require.NoError(t, err)
		item.Title = "Summer sale"
		item.Position = 5
		require.NoError(t, repo.UpdateItem(ctx, item))

		stored, err := repo.GetItem(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "Summer sale", stored.Title)
		assert.Equal(t, 5, stored.Position)
	})

	t.Run("UpdateItem_NotFound", func(t *testing.T) {
		err := repo.UpdateItem(ctx, &carousel.Item{ID: 404})
		assert.Equal(t, carousel.ErrItemNotFound, err)
	})

	t.Run("ListItems orders by position", func(t *testing.T) {
		other := &carousel.Item{OwnerKindID: 2, OwnerID: owner.ID, Position: 1}
		require.NoError(t, repo.CreateItem(ctx, other))

		items, err := repo.ListItems(ctx, owner)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, int64(2), items[0].ID)
		assert.Equal(t, int64(1), items[1].ID)
	})

	t.Run("ListItems breaks ties by id", func(t *testing.T) {
		tied := carousel.OwnerRef{KindID: 3, ID: 1}
		for i := 0; i < 3; i++ {
			require.NoError(t, repo.CreateItem(ctx, &carousel.Item{OwnerKindID: tied.KindID, OwnerID: tied.ID, Position: 999}))
		}

		items, err := repo.ListItems(ctx, tied)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Less(t, items[0].ID, items[1].ID)
		assert.Less(t, items[1].ID, items[2].ID)
	})

	t.Run("ListItems for unknown owner is empty", func(t *testing.T) {
		items, err := repo.ListItems(ctx, carousel.OwnerRef{KindID: 9, ID: 9})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("DeleteItem", func(t *testing.T) {
		require.NoError(t, repo.DeleteItem(ctx, 1))

		_, err := repo.GetItem(ctx, 1)
		assert.Equal(t, carousel.ErrItemNotFound, err)
		assert.Equal(t, carousel.ErrItemNotFound, repo.DeleteItem(ctx, 1))
	})
}

func TestMemoryRepository_WithinTx(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.WithinTx(ctx, func(tx carousel.Repository) error {
		require.NoError(t, tx.CreateItem(ctx, &carousel.Item{OwnerKindID: 1, OwnerID: 1}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	items, err := repo.ListItems(ctx, carousel.OwnerRef{KindID: 1, ID: 1})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
