// Package api defines the contracts for API requests and responses.
// It decouples the API structure from the internal domain models.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"conceptgraph-backend/domain/lexicon"
	pkgerrors "conceptgraph-backend/pkg/errors"
)

// CreateConceptRequest is the expected body for a POST /concepts request.
type CreateConceptRequest struct {
	Labels []string `json:"labels" validate:"required,min=1,dive,required"`
	Sense  string   `json:"sense" validate:"required"`
	Parent string   `json:"parent,omitempty"`
}

// CreateConceptFromLabelRequest is the expected body for a
// POST /concepts/from-label request.
type CreateConceptFromLabelRequest struct {
	Label  string `json:"label" validate:"required"`
	Parent string `json:"parent,omitempty"`
}

// AddSynonymRequest is the expected body for a
// POST /concepts/{label}/synonyms request.
type AddSynonymRequest struct {
	Synonym string `json:"synonym" validate:"required"`
}

// CreateRelationRequest is the expected body for a POST /relations request.
// Source and target name existing concepts by one of their labels.
type CreateRelationRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
	Label  string `json:"label,omitempty"`
}

// ConceptResponse is the API representation of a single concept.
type ConceptResponse struct {
	ID             int64    `json:"id"`
	Labels         []string `json:"labels"`
	CanonicalSense string   `json:"canonicalSense"`
}

// RelationResponse is the API representation of a relation.
type RelationResponse struct {
	Source int64  `json:"source"`
	Target int64  `json:"target"`
	Label  string `json:"label,omitempty"`
}

// GraphResponse is the node-link representation of the whole graph.
type GraphResponse struct {
	Nodes []ConceptResponse  `json:"nodes"`
	Edges []RelationResponse `json:"edges"`
}

// DepthResponse reports a concept's layer in the generalization hierarchy.
type DepthResponse struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Depth int    `json:"depth"`
}

// ErrorResponse is a standardized error message for API responses.
type ErrorResponse struct {
	Error      string                   `json:"error"`
	Code       string                   `json:"code,omitempty"`
	Candidates []lexicon.SenseCandidate `json:"candidates,omitempty"`
}

// Success writes a JSON response with the given status code.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// DomainError maps a domain error onto the HTTP surface. Ambiguous label
// errors carry their candidate senses in the payload so a client can retry
// with an explicit sense.
func DomainError(w http.ResponseWriter, err error) {
	var ambiguous *lexicon.AmbiguousLabelError
	if errors.As(err, &ambiguous) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error:      ambiguous.Error(),
			Code:       string(pkgerrors.CodeAmbiguousLabel),
			Candidates: ambiguous.Candidates,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case pkgerrors.IsValidation(err):
		status = http.StatusBadRequest
	case pkgerrors.IsNotFound(err):
		status = http.StatusNotFound
	case pkgerrors.IsConflict(err):
		status = http.StatusConflict
	}

	resp := ErrorResponse{
		Error: err.Error(),
		Code:  string(pkgerrors.CodeOf(err)),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
