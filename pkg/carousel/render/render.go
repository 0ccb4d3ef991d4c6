// Package render renders the carousel management panel and its item list.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/tendant/simple-carousel/pkg/carousel"
)

// Template names
const (
	ItemsTemplate     = "items.html"
	ItemsListTemplate = "items-list.html"
)

//go:embed templates/*.html
var templateFS embed.FS

// ItemsView is the data of both templates
type ItemsView struct {
	Owner     *carousel.Owner
	Items     []ItemView
	CSRFToken string
	AddURL    string
	UpdateURL string
}

// ItemView is one row of the item list
type ItemView struct {
	ID           int64
	Title        string
	Link         string
	Text         string
	Position     int
	ImageURL     string
	ThumbnailURL string
	MoveUpURL    string
	MoveDownURL  string
}

// Config configures a Renderer
type Config struct {
	// MediaURL is prepended to storage keys to build image URLs
	MediaURL string
	// ThumbnailSize selects the thumbnail shown in the list
	ThumbnailSize carousel.ThumbnailSize
}

// Renderer renders the embedded templates
type Renderer struct {
	tmpl      *template.Template
	mediaURL  string
	thumbnail carousel.ThumbnailSize
}

// New parses the embedded templates
func New(config Config) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if config.ThumbnailSize == (carousel.ThumbnailSize{}) {
		config.ThumbnailSize = carousel.ThumbnailSize{Width: 60, Height: 60}
	}

	return &Renderer{
		tmpl:      tmpl,
		mediaURL:  strings.TrimSuffix(config.MediaURL, "/"),
		thumbnail: config.ThumbnailSize,
	}, nil
}

// Render executes the named template
func (r *Renderer) Render(name string, view ItemsView) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, view); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// MediaURL returns the public URL of a storage key
func (r *Renderer) MediaURL(key string) string {
	if key == "" {
		return ""
	}
	return r.mediaURL + "/" + strings.TrimPrefix(key, "/")
}

// ItemView builds the list row of item. Move URLs are left to the caller.
func (r *Renderer) ItemView(item *carousel.Item) ItemView {
	view := ItemView{
		ID:       item.ID,
		Title:    item.Title,
		Link:     item.Link,
		Text:     item.Text,
		Position: item.Position,
	}
	if item.HasImage() {
		view.ImageURL = r.MediaURL(item.Image)
		view.ThumbnailURL = r.MediaURL(carousel.ThumbnailKey(item.Image, r.thumbnail))
	}
	return view
}
