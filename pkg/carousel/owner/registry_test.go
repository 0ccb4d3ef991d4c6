package owner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-carousel/pkg/carousel"
	"github.com/tendant/simple-carousel/pkg/carousel/owner"
)

func TestRegistry_ResolveOwner(t *testing.T) {
	registry := owner.NewRegistry()
	registry.Register(carousel.OwnerKind{ID: 2, Name: "category"}, owner.Static(map[int64]string{5: "Shoes"}))
	registry.Register(carousel.OwnerKind{ID: 1, Name: "product"}, owner.Any("product"))
	ctx := context.Background()

	t.Run("static accessor", func(t *testing.T) {
		o, err := registry.ResolveOwner(ctx, carousel.OwnerRef{KindID: 2, ID: 5})
		require.NoError(t, err)
		assert.Equal(t, "Shoes", o.Label)
		assert.Equal(t, "category", o.Kind.Name)
		assert.Equal(t, carousel.OwnerRef{KindID: 2, ID: 5}, o.Ref())
	})

	t.Run("missing entity", func(t *testing.T) {
		_, err := registry.ResolveOwner(ctx, carousel.OwnerRef{KindID: 2, ID: 6})
		assert.ErrorIs(t, err, carousel.ErrOwnerNotFound)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := registry.ResolveOwner(ctx, carousel.OwnerRef{KindID: 99, ID: 1})
		assert.ErrorIs(t, err, carousel.ErrOwnerNotFound)
	})

	t.Run("any accessor", func(t *testing.T) {
		o, err := registry.ResolveOwner(ctx, carousel.OwnerRef{KindID: 1, ID: 12})
		require.NoError(t, err)
		assert.Equal(t, "product #12", o.Label)

		_, err = registry.ResolveOwner(ctx, carousel.OwnerRef{KindID: 1, ID: 0})
		assert.ErrorIs(t, err, carousel.ErrOwnerNotFound)
	})

	t.Run("kinds are ordered", func(t *testing.T) {
		kinds := registry.Kinds()
		require.Len(t, kinds, 2)
		assert.Equal(t, int64(1), kinds[0].ID)

		kind, ok := registry.Kind(2)
		assert.True(t, ok)
		assert.Equal(t, "category", kind.Name)
	})
}

func TestParseKinds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []owner.KindSpec
		wantErr bool
	}{
		{
			name:  "with tables",
			input: "1=product:products, 2=category:shop.categories",
			want: []owner.KindSpec{
				{ID: 1, Name: "product", Table: "products"},
				{ID: 2, Name: "category", Table: "shop.categories"},
			},
		},
		{
			name:  "without table",
			input: "3=page",
			want:  []owner.KindSpec{{ID: 3, Name: "page"}},
		},
		{name: "empty", input: "", want: nil},
		{name: "missing name", input: "1=", wantErr: true},
		{name: "bad id", input: "x=product", wantErr: true},
		{name: "no separator", input: "product", wantErr: true},
		{name: "duplicate", input: "1=a,1=b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := owner.ParseKinds(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
