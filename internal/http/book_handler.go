package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"booklibrary/internal/book"
	"booklibrary/internal/httpx"
	"booklibrary/internal/view"

	"go.uber.org/zap"
)

type BookHandler struct {
	svc    *book.Service
	logger *zap.Logger
}

func NewBookHandler(svc *book.Service, logger *zap.Logger) *BookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookHandler{svc: svc, logger: logger}
}

// Register mounts the book routes on mux.
func (h *BookHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /books", h.List)
	mux.HandleFunc("POST /books", h.Create)
	mux.HandleFunc("GET /books/stats", h.Stats)
	mux.HandleFunc("GET /books/{id}", h.Get)
	mux.HandleFunc("PUT /books/{id}", h.Update)
	mux.HandleFunc("DELETE /books/{id}", h.Delete)
}

// @Summary List books
// @Description List books, optionally filtered, sorted and paginated
// @Tags books
// @Produce json
// @Param search query string false "Case-insensitive title/author substring"
// @Param genre query string false "Exact genre"
// @Param status query string false "Available or Issued"
// @Param sort query string false "title, author, genre, publishedYear or status" default(title)
// @Param order query string false "asc or desc" default(asc)
// @Param page query int false "Page number, 1-based"
// @Param page_size query int false "Items per page (5, 10, 25, 50)" default(10)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /books [get]
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	lq, details := parseListQuery(r)
	if len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters", details)
		return
	}

	books, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	state := lq.state
	result := view.Apply(books, state)
	meta := map[string]any{"total": result.Total}

	var data []book.Book
	switch {
	case lq.paginate:
		data = result.Items
		meta["page"] = state.Pagination.Page + 1
		meta["page_size"] = state.Pagination.PageSize
		meta["total_pages"] = view.PageCount(result.Total, state.Pagination.PageSize)
	case lq.sorted:
		data = result.Filtered
	default:
		data = view.Filter(books, state.Filters)
	}
	httpx.JSONSuccess(w, r, data, meta)
}

type listQuery struct {
	state    view.State
	paginate bool
	// sorted is false when no sort was requested; an unpaginated list then
	// keeps store order.
	sorted bool
}

// parseListQuery folds the query string into a view.State through the
// reducer so the HTTP list follows the dashboard semantics.
func parseListQuery(r *http.Request) (listQuery, []httpx.ErrorDetail) {
	q := r.URL.Query()
	var details []httpx.ErrorDetail

	state := view.InitialState()

	search := q.Get("search")
	genre := q.Get("genre")
	status := book.Status(q.Get("status"))
	if status != "" && !status.Valid() {
		details = append(details, httpx.ErrorDetail{Field: "status", Message: "status must be Available or Issued"})
	}
	state = view.Reduce(state, view.SetFilters{Search: &search, Genre: &genre, Status: &status})

	sortKey := q.Get("sort")
	if sortKey != "" {
		key := view.SortKey(sortKey)
		if !key.Valid() {
			details = append(details, httpx.ErrorDetail{Field: "sort", Message: "sort must be one of title, author, genre, publishedYear, status"})
		}
		order := view.Direction(strings.ToLower(q.Get("order")))
		if order != "" && order != view.Asc && order != view.Desc {
			details = append(details, httpx.ErrorDetail{Field: "order", Message: "order must be asc or desc"})
		}
		state = view.Reduce(state, view.SetSort{Key: key, Direction: order})
	}

	paginate := q.Has("page") || q.Has("page_size")
	if paginate {
		var p view.SetPagination
		if raw := q.Get("page_size"); raw != "" {
			size, err := strconv.Atoi(raw)
			if err != nil || !view.ValidPageSize(size) {
				details = append(details, httpx.ErrorDetail{Field: "page_size", Message: "page_size must be one of 5, 10, 25, 50"})
			} else {
				p.PageSize = &size
			}
		}
		page := 1
		if raw := q.Get("page"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				details = append(details, httpx.ErrorDetail{Field: "page", Message: "page must be a positive integer"})
			} else {
				page = n
			}
		}
		zeroBased := page - 1
		p.Page = &zeroBased
		state = view.Reduce(state, p)
	}

	return listQuery{state: state, paginate: paginate, sorted: sortKey != ""}, details
}

// @Summary Get book
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /books/{id} [get]
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// @Summary Create book
// @Tags books
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /books [post]
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var f book.Fields
	if err := httpx.DecodeJSON(r, &f); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_JSON", "Request body is not valid JSON", nil)
		return
	}

	b, err := h.svc.Create(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("book created", zap.String("id", b.ID), zap.String("request_id", httpx.RequestIDFrom(r)))
	httpx.JSONCreated(w, r, b)
}

// @Summary Update book
// @Description Partial update; fields not present are kept
// @Tags books
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /books/{id} [put]
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p book.Patch
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_JSON", "Request body is not valid JSON", nil)
		return
	}

	b, err := h.svc.Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// @Summary Delete book
// @Description Removes a book and returns the removed record
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("book deleted", zap.String("id", b.ID), zap.String("request_id", httpx.RequestIDFrom(r)))
	httpx.JSONSuccess(w, r, b, nil)
}

// @Summary Collection statistics
// @Tags books
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /books/stats [get]
func (h *BookHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, s, nil)
}

func (h *BookHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *book.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]httpx.ErrorDetail, len(verr.Fields))
		for i, f := range verr.Fields {
			details[i] = httpx.ErrorDetail{Field: f.Field, Message: f.Message}
		}
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid book fields", details)
	case errors.Is(err, book.ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case r.Context().Err() != nil:
		httpx.JSONError(w, r, http.StatusServiceUnavailable, "REQUEST_CANCELLED", "Request cancelled", nil)
	default:
		h.logger.Error("book request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", httpx.RequestIDFrom(r)),
			zap.Error(err),
		)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred", nil)
	}
}
