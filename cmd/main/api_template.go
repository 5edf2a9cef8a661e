package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Anthology/pkg/templating"
)

// TemplateAPI holds the dependencies for the template API handlers.
type TemplateAPI struct {
	engine *templating.Engine
	config *ConfigManager
	logger *slog.Logger
}

// NewTemplateAPI creates a new instance of the TemplateAPI.
func NewTemplateAPI(engine *templating.Engine, config *ConfigManager, logger *slog.Logger) *TemplateAPI {
	return &TemplateAPI{
		engine: engine,
		config: config,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for the template endpoints.
func (t *TemplateAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/expand", t.handleExpand)
	mux.HandleFunc("/api/spread", t.handleSpread)
	mux.HandleFunc("/api/count", t.handleCount)
}

// TemplateRequest is the body of every template endpoint.
type TemplateRequest struct {
	Text  string `json:"text"`
	Count int    `json:"count,omitempty"`
}

// TemplateResponse carries expansion results.
type TemplateResponse struct {
	Results []string `json:"results,omitempty"`
	Count   int      `json:"count"`
}

// handleExpand resolves a template randomly one or more times.
func (t *TemplateAPI) handleExpand(w http.ResponseWriter, r *http.Request) {
	req, ok := t.decode(w, r)
	if !ok {
		return
	}
	n := req.Count
	if n <= 0 {
		n = 1
	}
	if limit := t.config.Get().Server.MaxExpandCount; limit > 0 && n > limit {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("count %d exceeds the limit of %d", n, limit))
		return
	}

	results, err := t.engine.ExpandN(req.Text, n)
	if err != nil {
		respondWithDomainError(w, r, t.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, TemplateResponse{Results: results, Count: len(results)})
}

// handleSpread enumerates every combination of a template.
func (t *TemplateAPI) handleSpread(w http.ResponseWriter, r *http.Request) {
	req, ok := t.decode(w, r)
	if !ok {
		return
	}
	results, err := t.engine.Spread(req.Text)
	if err != nil {
		respondWithDomainError(w, r, t.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, TemplateResponse{Results: results, Count: len(results)})
}

// handleCount reports how many combinations a spread would produce.
func (t *TemplateAPI) handleCount(w http.ResponseWriter, r *http.Request) {
	req, ok := t.decode(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, TemplateResponse{Count: t.engine.Count(req.Text)})
}

func (t *TemplateAPI) decode(w http.ResponseWriter, r *http.Request) (TemplateRequest, bool) {
	var req TemplateRequest
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return req, false
	}
	return req, decodeBody(w, r, &req)
}
