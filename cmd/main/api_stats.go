package main

import (
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/CTAG07/Anthology/pkg/library"
)

// StatsSummary provides a high-level overview of the library.
type StatsSummary struct {
	Keys      int    `json:"keys"`
	Snippets  int    `json:"snippets"`
	SizeBytes int    `json:"size_bytes"`
	Size      string `json:"size"`
}

// StatsAPI holds the dependencies for the statistics handlers.
type StatsAPI struct {
	lib *library.Library
}

func NewStatsAPI(lib *library.Library) *StatsAPI {
	return &StatsAPI{lib: lib}
}

func (s *StatsAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats/summary", s.handleSummary)
}

func (s *StatsAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	respondWithJSON(w, http.StatusOK, summarize(s.lib))
}

func summarize(lib *library.Library) StatsSummary {
	entries := lib.Entries()
	summary := StatsSummary{Keys: len(entries), SizeBytes: lib.Size()}
	for _, e := range entries {
		summary.Snippets += e.Count
	}
	summary.Size = humanize.Bytes(uint64(summary.SizeBytes))
	return summary
}
