package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/service"
)

// AuthorService is the subset of *service.AuthorService the REST layer uses.
type AuthorService interface {
	List(ctx context.Context, args service.ListArgs) (*model.AuthorList, error)
	Find(ctx context.Context, args service.ListArgs) ([]model.AuthorDto, error)
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (*model.AuthorDto, error)
	Create(ctx context.Context, req service.CreateAuthorRequest) (*model.AuthorDto, error)
	Update(ctx context.Context, id int64, req service.UpdateAuthorRequest) (*model.AuthorDto, error)
	Delete(ctx context.Context, id int64) error
}

type AuthorHandler struct {
	authors AuthorService
	logger  zerolog.Logger
}

func NewAuthorHandler(authors AuthorService, logger zerolog.Logger) *AuthorHandler {
	return &AuthorHandler{authors: authors, logger: logger}
}

// Routes mounts the author endpoints. protect wraps the write routes.
func (h *AuthorHandler) Routes(r chi.Router, protect func(http.Handler) http.Handler) {
	r.Get("/authors", h.HandleList)
	r.Get("/authors/{id}", h.HandleList)
	r.Get("/authors/{id}/detail", h.HandleGet)
	r.Get("/authors-list", h.HandleFind)
	r.Get("/authors-list/{id}", h.HandleFind)
	r.Get("/authors-count", h.HandleCount)

	r.Group(func(r chi.Router) {
		r.Use(protect)
		r.Post("/authors", h.HandleCreate)
		r.Patch("/authors/{id}", h.HandleUpdate)
		r.Delete("/authors/{id}", h.HandleDelete)
	})
}

// HandleList serves GET /authors and GET /authors/{id} with {list, count}.
func (h *AuthorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	args, err := listArgs(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.authors.List(r.Context(), args)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

// HandleFind serves GET /authors-list[/{id}] with {list}.
func (h *AuthorHandler) HandleFind(w http.ResponseWriter, r *http.Request) {
	args, err := listArgs(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.authors.Find(r.Context(), args)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, listResponse[model.AuthorDto]{List: list})
}

func (h *AuthorHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.authors.Count(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, countResponse{Count: n})
}

func (h *AuthorHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	author, err := h.authors.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, author)
}

func (h *AuthorHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req service.CreateAuthorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	author, err := h.authors.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, author)
}

func (h *AuthorHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req service.UpdateAuthorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	author, err := h.authors.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, author)
}

func (h *AuthorHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.authors.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
