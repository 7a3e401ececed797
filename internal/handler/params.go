package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/service"
)

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "id must be a positive integer")
	}
	return id, nil
}

// listArgs collects the optional {id} path parameter and the limit and
// offset query parameters. Range checks happen in the service.
func listArgs(r *http.Request) (service.ListArgs, error) {
	var args service.ListArgs

	if chi.URLParam(r, "id") != "" {
		id, err := pathID(r)
		if err != nil {
			return args, err
		}
		args.ID = &id
	}

	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  **int
	}{
		{"limit", &args.Limit},
		{"offset", &args.Offset},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return args, apperror.ValidationFailed(p.name, p.name+" must be an integer")
		}
		*p.dst = &v
	}

	return args, nil
}
