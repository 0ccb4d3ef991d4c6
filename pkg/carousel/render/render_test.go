package render_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-carousel/pkg/carousel"
	"github.com/tendant/simple-carousel/pkg/carousel/render"
)

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	r, err := render.New(render.Config{MediaURL: "/media/"})
	require.NoError(t, err)
	return r
}

func TestRenderer_ItemView(t *testing.T) {
	r := newRenderer(t)

	view := r.ItemView(&carousel.Item{ID: 4, Title: "Sale", Image: "images/x/sale.jpg", Position: 10})
	assert.Equal(t, "/media/images/x/sale.jpg", view.ImageURL)
	assert.Equal(t, "/media/images/x/sale.jpg.60x60.jpg", view.ThumbnailURL)

	empty := r.ItemView(&carousel.Item{ID: 5})
	assert.Empty(t, empty.ImageURL)
	assert.Empty(t, empty.ThumbnailURL)
}

func TestRenderer_ItemsList(t *testing.T) {
	r := newRenderer(t)
	view := render.ItemsView{
		Owner: &carousel.Owner{Kind: carousel.OwnerKind{ID: 1, Name: "product"}, ID: 3, Label: "Boots"},
		Items: []render.ItemView{
			{ID: 7, Title: `<script>alert("x")</script>`, Position: 10, MoveUpURL: "/move-item/7?direction=0"},
		},
	}

	html, err := r.Render(render.ItemsListTemplate, view)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, `<div id="items-list">`))
	assert.Contains(t, html, `name="title-7"`)
	assert.Contains(t, html, `name="delete-7"`)
	assert.Contains(t, html, `name="position-7" value="10"`)
	assert.Contains(t, html, `href="/move-item/7?direction=0"`)
	assert.NotContains(t, html, "<script>")
}

func TestRenderer_ItemsListEmpty(t *testing.T) {
	html, err := newRenderer(t).Render(render.ItemsListTemplate, render.ItemsView{})
	require.NoError(t, err)
	assert.Contains(t, html, "There are no carousel items yet.")
}

func TestRenderer_ItemsPanel(t *testing.T) {
	view := render.ItemsView{
		Owner:     &carousel.Owner{Kind: carousel.OwnerKind{ID: 2, Name: "category"}, ID: 8, Label: "Shoes"},
		CSRFToken: "token-123",
		AddURL:    "/carousel/add-item/2/8/",
		UpdateURL: "/carousel/update-items/2/8/",
	}

	html, err := newRenderer(t).Render(render.ItemsTemplate, view)
	require.NoError(t, err)
	assert.Contains(t, html, "Carousel: Shoes")
	assert.Contains(t, html, `action="/carousel/add-item/2/8/"`)
	assert.Contains(t, html, `value="token-123"`)
	assert.Contains(t, html, `<div id="items-list">`)
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	_, err := newRenderer(t).Render("missing.html", render.ItemsView{})
	assert.Error(t, err)
}
