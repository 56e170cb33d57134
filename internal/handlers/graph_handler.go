// Package handlers implements the HTTP surface of the concept graph service.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"conceptgraph-backend/domain/core/entities"
	graphsvc "conceptgraph-backend/internal/service/graph"
	"conceptgraph-backend/pkg/api"
)

// GraphHandler exposes the concept graph operations over HTTP.
type GraphHandler struct {
	svc      *graphsvc.Service
	logger   *zap.Logger
	validate *validator.Validate
}

// NewGraphHandler creates a handler over the given service.
func NewGraphHandler(svc *graphsvc.Service, logger *zap.Logger) *GraphHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphHandler{
		svc:      svc,
		logger:   logger,
		validate: validator.New(),
	}
}

// CreateConcept handles POST /api/v1/concepts.
func (h *GraphHandler) CreateConcept(w http.ResponseWriter, r *http.Request) {
	var req api.CreateConceptRequest
	if !h.decode(w, r, &req) {
		return
	}

	concept, err := h.svc.CreateConcept(req.Labels, req.Sense, req.Parent)
	if err != nil {
		api.DomainError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, conceptResponse(concept))
}

// CreateConceptFromLabel handles POST /api/v1/concepts/from-label.
func (h *GraphHandler) CreateConceptFromLabel(w http.ResponseWriter, r *http.Request) {
	var req api.CreateConceptFromLabelRequest
	if !h.decode(w, r, &req) {
		return
	}

	concept, err := h.svc.CreateConceptFromLabel(req.Label, req.Parent)
	if err != nil {
		api.DomainError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, conceptResponse(concept))
}

// AddSynonym handles POST /api/v1/concepts/{label}/synonyms.
func (h *GraphHandler) AddSynonym(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")

	var req api.AddSynonymRequest
	if !h.decode(w, r, &req) {
		return
	}

	concept, err := h.svc.AddSynonym(label, req.Synonym)
	if err != nil {
		api.DomainError(w, err)
		return
	}
	api.Success(w, http.StatusOK, conceptResponse(concept))
}

// CreateRelation handles POST /api/v1/relations.
func (h *GraphHandler) CreateRelation(w http.ResponseWriter, r *http.Request) {
	var req api.CreateRelationRequest
	if !h.decode(w, r, &req) {
		return
	}

	relation, err := h.svc.CreateRelation(req.Source, req.Target, req.Label)
	if err != nil {
		api.DomainError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, api.RelationResponse{
		Source: relation.Source().ID().Int64(),
		Target: relation.Target().ID().Int64(),
		Label:  relation.Label(),
	})
}

// GetGraph handles GET /api/v1/graph.
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	resp := api.GraphResponse{
		Nodes: make([]api.ConceptResponse, 0),
		Edges: make([]api.RelationResponse, 0),
	}
	for _, c := range h.svc.Concepts() {
		resp.Nodes = append(resp.Nodes, conceptResponse(c))
	}
	for _, rel := range h.svc.Relations() {
		resp.Edges = append(resp.Edges, api.RelationResponse{
			Source: rel.Source().ID().Int64(),
			Target: rel.Target().ID().Int64(),
			Label:  rel.Label(),
		})
	}
	api.Success(w, http.StatusOK, resp)
}

// GetConcept handles GET /api/v1/concepts/{label}.
func (h *GraphHandler) GetConcept(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")

	concept, ok := h.svc.FindByLabel(label)
	if !ok {
		api.Error(w, http.StatusNotFound, "no concept carries label "+label)
		return
	}
	api.Success(w, http.StatusOK, conceptResponse(concept))
}

// GetDepths handles GET /api/v1/graph/depths.
func (h *GraphHandler) GetDepths(w http.ResponseWriter, r *http.Request) {
	depths, err := h.svc.LayeredDepths()
	if err != nil {
		api.DomainError(w, err)
		return
	}

	resp := make([]api.DepthResponse, 0, len(depths))
	for _, c := range h.svc.Concepts() {
		depth, ok := depths[c]
		if !ok {
			continue
		}
		resp = append(resp, api.DepthResponse{
			ID:    c.ID().Int64(),
			Label: c.Labels()[0],
			Depth: depth,
		})
	}
	api.Success(w, http.StatusOK, resp)
}

// GetLayout handles GET /api/v1/graph/layout.
func (h *GraphHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	placements, err := h.svc.Layout()
	if err != nil {
		api.DomainError(w, err)
		return
	}
	api.Success(w, http.StatusOK, placements)
}

// decode parses and validates a JSON request body.
func (h *GraphHandler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		h.logger.Debug("request validation failed", zap.Error(err))
		api.Error(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

func conceptResponse(c *entities.Concept) api.ConceptResponse {
	return api.ConceptResponse{
		ID:             c.ID().Int64(),
		Labels:         c.Labels(),
		CanonicalSense: c.CanonicalSense().String(),
	}
}
