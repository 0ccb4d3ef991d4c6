package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-carousel/pkg/carousel"
)

// Presigner is implemented by blob stores that can hand out direct URLs
type Presigner interface {
	PresignGetURL(ctx context.Context, objectKey string) (string, error)
}

// MediaHandler serves stored images. Stores implementing Presigner are
// answered with a redirect instead of streaming through this process.
type MediaHandler struct {
	store carousel.BlobStore
}

// NewMediaHandler creates a media handler over store
func NewMediaHandler(store carousel.BlobStore) *MediaHandler {
	return &MediaHandler{store: store}
}

// Routes returns the media routes
func (h *MediaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/*", h.ServeHTTP)
	r.Head("/*", h.ServeHTTP)
	return r
}

// ServeHTTP serves the object named by the wildcard path
func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" || strings.Contains(key, "..") {
		http.NotFound(w, r)
		return
	}

	if p, ok := h.store.(Presigner); ok {
		url, err := p.PresignGetURL(r.Context(), key)
		if err == nil {
			http.Redirect(w, r, url, http.StatusFound)
			return
		}
		slog.Warn("Failed to presign media URL", "key", key, "error", err)
	}

	meta, err := h.store.GetObjectMeta(r.Context(), key)
	if err != nil {
		if errors.Is(err, carousel.ErrObjectNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("Failed to stat media", "key", key, "error", err)
		http.Error(w, "Failed to read media", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if r.Method == http.MethodHead {
		return
	}

	rc, err := h.store.Download(r.Context(), key)
	if err != nil {
		if errors.Is(err, carousel.ErrObjectNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("Failed to download media", "key", key, "error", err)
		http.Error(w, "Failed to read media", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("Failed to stream media", "key", key, "error", err)
	}
}
