package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/service"
)

type PostService interface {
	List(ctx context.Context, args service.ListArgs) (*model.PostList, error)
	Find(ctx context.Context, args service.ListArgs) ([]model.PostDto, error)
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (*model.PostDto, error)
	ListByAuthor(ctx context.Context, authorID int64) (*model.PostList, error)
	FindByAuthor(ctx context.Context, authorID int64) ([]model.PostDto, error)
	CountByAuthor(ctx context.Context, authorID int64) (int64, error)
	Create(ctx context.Context, req service.CreatePostRequest) (*model.PostDto, error)
	Update(ctx context.Context, id int64, req service.UpdatePostRequest) (*model.PostDto, error)
	Delete(ctx context.Context, id int64) error
}

type PostHandler struct {
	posts  PostService
	logger zerolog.Logger
}

func NewPostHandler(posts PostService, logger zerolog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

func (h *PostHandler) Routes(r chi.Router, protect func(http.Handler) http.Handler) {
	r.Get("/posts", h.HandleList)
	r.Get("/posts/{id}", h.HandleList)
	r.Get("/posts/{id}/detail", h.HandleGet)
	r.Get("/posts-list", h.HandleFind)
	r.Get("/posts-list/{id}", h.HandleFind)
	r.Get("/posts-count", h.HandleCount)
	r.Get("/posts-by-author/{id}", h.HandleListByAuthor)
	r.Get("/posts-by-author-list/{id}", h.HandleFindByAuthor)
	r.Get("/posts-by-author-count/{id}", h.HandleCountByAuthor)

	r.Group(func(r chi.Router) {
		r.Use(protect)
		r.Post("/posts", h.HandleCreate)
		r.Patch("/posts/{id}", h.HandleUpdate)
		r.Delete("/posts/{id}", h.HandleDelete)
	})
}

func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	args, err := listArgs(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.posts.List(r.Context(), args)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

func (h *PostHandler) HandleFind(w http.ResponseWriter, r *http.Request) {
	args, err := listArgs(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.posts.Find(r.Context(), args)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, listResponse[model.PostDto]{List: list})
}

func (h *PostHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.posts.Count(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, countResponse{Count: n})
}

func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, post)
}

// HandleListByAuthor serves GET /posts-by-author/{id}, where id is the
// author's id.
func (h *PostHandler) HandleListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.posts.ListByAuthor(r.Context(), authorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

func (h *PostHandler) HandleFindByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.posts.FindByAuthor(r.Context(), authorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, listResponse[model.PostDto]{List: list})
}

func (h *PostHandler) HandleCountByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	n, err := h.posts.CountByAuthor(r.Context(), authorID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, countResponse{Count: n})
}

func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, post)
}

func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req service.UpdatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, post)
}

func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
