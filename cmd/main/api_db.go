package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/CTAG07/Anthology/pkg/library"
	"github.com/CTAG07/Anthology/pkg/persist"
)

// DBAPI serves the snippet library: the whole-snapshot protocol used by
// remote backends and per-key editing.
type DBAPI struct {
	lib    *library.Library
	logger *slog.Logger
}

// NewDBAPI creates a new instance of the DBAPI.
func NewDBAPI(lib *library.Library, logger *slog.Logger) *DBAPI {
	return &DBAPI{lib: lib, logger: logger}
}

// RegisterRoutes sets up the routing for the /api/db and /api/keys endpoints.
func (a *DBAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/db", a.handleDB)
	mux.HandleFunc("/api/keys", a.handleKeys)
	mux.HandleFunc("/api/keys/{key}", a.handleKey)
}

// AddRequest is the body of a request appending one snippet.
type AddRequest struct {
	Text string `json:"text"`
}

// handleDB returns the whole library or replaces all values of one key.
func (a *DBAPI) handleDB(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondWithJSON(w, http.StatusOK, a.lib.Snapshot())
	case http.MethodPost:
		var req persist.SaveRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := a.lib.Set(r.Context(), req.Key, req.Value); err != nil {
			respondWithDomainError(w, r, a.logger, err)
			return
		}
		a.logger.Info("Key saved via API", "key", req.Key, "count", len(req.Value), "request_id", requestID(r.Context()))
		respondWithJSON(w, http.StatusOK, library.Entry{Key: req.Key, Count: len(req.Value)})
	default:
		w.Header().Set("Allow", "GET, POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleKeys lists every key with its snippet count. With format=template
// it returns the keys as one alternation group instead.
func (a *DBAPI) handleKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if r.URL.Query().Get("format") == "template" {
		respondWithJSON(w, http.StatusOK, KeysTemplate{Template: a.lib.Template()})
		return
	}
	respondWithJSON(w, http.StatusOK, a.lib.Entries())
}

// KeysTemplate is a group of every key, ready to be expanded.
type KeysTemplate struct {
	Template string `json:"template"`
}

// handleKey reads, extends, replaces or trims the snippets of one key.
func (a *DBAPI) handleKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	switch r.Method {
	case http.MethodGet:
		respondWithJSON(w, http.StatusOK, a.lib.Snippets(key))

	case http.MethodPost:
		var req AddRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := a.lib.Add(r.Context(), key, req.Text); err != nil {
			respondWithDomainError(w, r, a.logger, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, a.lib.Snippets(key))

	case http.MethodPut:
		var values []string
		if !decodeBody(w, r, &values) {
			return
		}
		if err := a.lib.Set(r.Context(), key, values); err != nil {
			respondWithDomainError(w, r, a.logger, err)
			return
		}
		respondWithJSON(w, http.StatusOK, a.lib.Snippets(key))

	case http.MethodDelete:
		var err error
		if idx := r.URL.Query().Get("index"); idx != "" {
			index, convErr := strconv.Atoi(idx)
			if convErr != nil {
				respondWithError(w, http.StatusBadRequest, "Invalid index")
				return
			}
			err = a.lib.Remove(r.Context(), key, index)
		} else {
			err = a.lib.Delete(r.Context(), key)
		}
		if err != nil {
			respondWithDomainError(w, r, a.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, POST, PUT, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// decodeBody reads a size-limited JSON body into v, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return false
	}
	return true
}
