package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/tendant/simple-carousel/pkg/carousel"
	carouselrender "github.com/tendant/simple-carousel/pkg/carousel/render"
)

const (
	// UploadField is the multipart field holding uploaded images
	UploadField = "files[]"

	// ItemsListSelector is the element replaced by re-rendered item lists
	ItemsListSelector = "#items-list"

	defaultMaxUploadBytes = 32 << 20
	multipartMemory       = 8 << 20
)

// Renderer renders item views
type Renderer interface {
	Render(name string, view carouselrender.ItemsView) (string, error)
	ItemView(item *carousel.Item) carouselrender.ItemView
}

// HandlerConfig configures a CarouselHandler
type HandlerConfig struct {
	// BasePath is the prefix the routes are mounted under. It is used to
	// build the links in rendered fragments.
	BasePath       string
	Capability     string
	LoginURL       string
	MaxUploadBytes int64
	CSRF           CSRFConfig
}

// CarouselHandler serves the carousel management endpoints
type CarouselHandler struct {
	service    carousel.Service
	renderer   Renderer
	authorizer Authorizer
	config     HandlerConfig
}

// NewCarouselHandler creates a new carousel handler
func NewCarouselHandler(service carousel.Service, renderer Renderer, authorizer Authorizer, config HandlerConfig) *CarouselHandler {
	config.BasePath = strings.TrimSuffix(config.BasePath, "/")
	if config.Capability == "" {
		config.Capability = DefaultCapability
	}
	if config.LoginURL == "" {
		config.LoginURL = "/login/"
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = defaultMaxUploadBytes
	}

	return &CarouselHandler{
		service:    service,
		renderer:   renderer,
		authorizer: authorizer,
		config:     config,
	}
}

// Routes returns the routes for carousel management
func (h *CarouselHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RecoveryMiddleware)

	r.Method(http.MethodPost, "/add-item/{kindID}/{ownerID}/",
		h.guard(http.HandlerFunc(h.AddItem), RequestSizeLimitMiddleware(h.config.MaxUploadBytes)))
	r.Method(http.MethodPost, "/update-items/{kindID}/{ownerID}/", h.guard(http.HandlerFunc(h.UpdateItems)))
	r.Method(http.MethodGet, "/manage-items/{kindID}/{ownerID}/", h.guard(http.HandlerFunc(h.ManageItems)))
	r.Method(http.MethodGet, "/move-item/{id}", h.guard(http.HandlerFunc(h.MoveItem)))
	r.Method(http.MethodGet, "/items/{kindID}/{ownerID}/", h.guard(http.HandlerFunc(h.ItemsPanel)))

	return r
}

// guard wraps a management endpoint: uncached, capability checked and
// CSRF protected. extra middlewares run outermost.
func (h *CarouselHandler) guard(next http.Handler, extra ...Middleware) http.Handler {
	chain := NewMiddlewareChain(extra...)
	chain.Then(middleware.NoCache).
		Then(RequireCapability(h.authorizer, h.config.Capability, h.config.LoginURL)).
		Then(CSRFProtect(h.config.CSRF))
	return chain.Wrap(next)
}

// AddItem stores every uploaded image as a new item
func (h *CarouselHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.ownerRef(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", "Upload exceeds the size limit")
			return
		}
		slog.Error("Invalid upload", "error", err)
		writeError(w, http.StatusBadRequest, "invalid_upload", "Invalid multipart form")
		return
	}

	var uploads []carousel.Upload
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File[UploadField] {
			uploads = append(uploads, uploadFromHeader(fh))
		}
	}

	result, err := h.service.AddItems(r.Context(), ref, uploads)
	if err != nil {
		h.fail(w, r, "add items", err)
		return
	}

	resp := AddItemResponse{
		Files:   result.Files,
		Created: len(result.Created),
		Skipped: result.Skipped,
	}
	if last, ok := result.Last(); ok {
		resp.Name = last.Name
		resp.Type = last.Type
		resp.Size = last.Size
	}

	slog.Info("Carousel items added", "owner", ref.String(), "created", resp.Created, "skipped", resp.Skipped)
	render.JSON(w, r, resp)
}

func uploadFromHeader(fh *multipart.FileHeader) carousel.Upload {
	return carousel.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// UpdateItems applies a bulk edit or delete and returns the new list
func (h *CarouselHandler) UpdateItems(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.ownerRef(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		slog.Error("Invalid form", "error", err)
		writeError(w, http.StatusBadRequest, "invalid_form", "Invalid form")
		return
	}

	fields := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			fields[key] = values[len(values)-1]
		}
	}

	result, err := h.service.UpdateItems(r.Context(), carousel.UpdateItemsRequest{
		Owner:  ref,
		Action: carousel.UpdateAction(r.PostForm.Get("action")),
		Fields: fields,
	})
	if err != nil {
		h.fail(w, r, "update items", err)
		return
	}

	list, err := h.renderList(r, ref)
	if err != nil {
		h.fail(w, r, "render items", err)
		return
	}

	render.JSON(w, r, HTMLResponse{
		HTML:    []HTMLFragment{{ItemsListSelector, list}},
		Message: result.Message,
	})
}

// ManageItems returns the rendered item list of an owner
func (h *CarouselHandler) ManageItems(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.ownerRef(w, r)
	if !ok {
		return
	}

	list, err := h.renderList(r, ref)
	if err != nil {
		h.fail(w, r, "list items", err)
		return
	}

	render.JSON(w, r, ItemsResponse{Items: list, Message: carousel.MessageItemsAdded})
}

// MoveItem nudges one item up or down and returns the new list
func (h *CarouselHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "item_not_found", "Carousel item not found")
		return
	}

	direction := carousel.ParseDirection(r.URL.Query().Get("direction"))
	item, err := h.service.MoveItem(r.Context(), id, direction)
	if err != nil {
		h.fail(w, r, "move item", err)
		return
	}

	list, err := h.renderList(r, item.Owner())
	if err != nil {
		h.fail(w, r, "render items", err)
		return
	}

	render.JSON(w, r, HTMLResponse{HTML: []HTMLFragment{{ItemsListSelector, list}}})
}

// ItemsPanel returns the full management panel as HTML
func (h *CarouselHandler) ItemsPanel(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.ownerRef(w, r)
	if !ok {
		return
	}

	owner, items, err := h.service.ListItems(r.Context(), ref)
	if err != nil {
		h.fail(w, r, "list items", err)
		return
	}

	html, err := h.renderer.Render(carouselrender.ItemsTemplate, h.itemsView(r, owner, items))
	if err != nil {
		h.fail(w, r, "render panel", err)
		return
	}

	render.HTML(w, r, html)
}

func (h *CarouselHandler) renderList(r *http.Request, ref carousel.OwnerRef) (string, error) {
	owner, items, err := h.service.ListItems(r.Context(), ref)
	if err != nil {
		return "", err
	}
	return h.renderer.Render(carouselrender.ItemsListTemplate, h.itemsView(r, owner, items))
}

func (h *CarouselHandler) itemsView(r *http.Request, owner *carousel.Owner, items []*carousel.Item) carouselrender.ItemsView {
	view := carouselrender.ItemsView{
		Owner:     owner,
		CSRFToken: CSRFToken(r.Context()),
		AddURL:    h.url("/add-item/%d/%d/", owner.Kind.ID, owner.ID),
		UpdateURL: h.url("/update-items/%d/%d/", owner.Kind.ID, owner.ID),
		Items:     make([]carouselrender.ItemView, 0, len(items)),
	}
	for _, item := range items {
		iv := h.renderer.ItemView(item)
		iv.MoveUpURL = h.url("/move-item/%d?direction=0", item.ID)
		iv.MoveDownURL = h.url("/move-item/%d?direction=1", item.ID)
		view.Items = append(view.Items, iv)
	}
	return view
}

func (h *CarouselHandler) url(format string, args ...any) string {
	return h.config.BasePath + fmt.Sprintf(format, args...)
}

func (h *CarouselHandler) ownerRef(w http.ResponseWriter, r *http.Request) (carousel.OwnerRef, bool) {
	kindID, err := parseID(chi.URLParam(r, "kindID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "owner_not_found", "Owner not found")
		return carousel.OwnerRef{}, false
	}
	ownerID, err := parseID(chi.URLParam(r, "ownerID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "owner_not_found", "Owner not found")
		return carousel.OwnerRef{}, false
	}
	return carousel.OwnerRef{KindID: kindID, ID: ownerID}, true
}

func (h *CarouselHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, carousel.ErrOwnerNotFound):
		writeError(w, http.StatusNotFound, "owner_not_found", "Owner not found")
	case errors.Is(err, carousel.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "item_not_found", "Carousel item not found")
	default:
		slog.ErrorContext(r.Context(), "Carousel request failed", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "An internal server error occurred")
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid id %d", id)
	}
	return id, nil
}
