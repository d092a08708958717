package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/query"
)

// documenter is implemented by the entities handlers render.
type documenter interface {
	Document() map[string]any
}

// pathID parses the {id} URL parameter. A malformed identifier is reported as
// a 404 naming the entity and false is returned.
func pathID(w http.ResponseWriter, r *http.Request, entity string) (uuid.UUID, bool) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusNotFound, "Invalid ID format provided for "+entity, err)
		return uuid.Nil, false
	}
	return id, true
}

// projection parses the select parameter of a single entity request.
func projection(values url.Values) (*query.Projection, error) {
	return query.ParseProjection(values.Get("select"))
}

// render converts entities into response documents with p applied.
func render[T documenter](entities []T, p *query.Projection) []map[string]any {
	docs := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		docs = append(docs, p.Apply(e.Document()))
	}
	return docs
}

// present reports whether a body field was supplied at all, including as null.
func present(raw json.RawMessage) bool {
	return len(raw) > 0
}
