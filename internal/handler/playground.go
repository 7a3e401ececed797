// Package handler contains the REST handlers and the GraphQL playground page.
//
// Handlers parse the request (path parameters, query parameters, JSON body),
// call a service, and write the response. They hold no business rules.
package handler

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog"
)

// The page loads GraphiQL from a CDN and points it at the GraphQL endpoint.
const playgroundTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/graphiql@3/graphiql.min.css">
  <style>body { margin: 0; height: 100vh; } #graphiql { height: 100vh; }</style>
</head>
<body>
  <div id="graphiql"></div>
  <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: {{.Endpoint}} });
    ReactDOM.createRoot(document.getElementById('graphiql'))
      .render(React.createElement(GraphiQL, { fetcher: fetcher }));
  </script>
</body>
</html>
`

// PlaygroundHandler serves an in-browser GraphQL IDE. The template is
// parsed once at construction.
type PlaygroundHandler struct {
	tmpl     *template.Template
	endpoint string
	logger   zerolog.Logger
}

func NewPlaygroundHandler(endpoint string, logger zerolog.Logger) (*PlaygroundHandler, error) {
	tmpl, err := template.New("playground").Parse(playgroundTemplate)
	if err != nil {
		return nil, err
	}
	return &PlaygroundHandler{tmpl: tmpl, endpoint: endpoint, logger: logger}, nil
}

func (h *PlaygroundHandler) HandlePlayground(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":    "blog-api GraphQL playground",
		"Endpoint": h.endpoint,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, data); err != nil {
		h.logger.Error().Err(err).Msg("failed to render playground")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
