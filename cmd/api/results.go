package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"phishguard/internal/storage"
)

// ResultRow is one scanned URL from the database. RawMessage prevents Go
// from escaping the stored result document.
type ResultRow struct {
	URL       string          `json:"url"`
	RiskScore int             `json:"riskScore"`
	Verdict   string          `json:"verdict"`
	Data      json.RawMessage `json:"data"`
}

func resultsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := r.URL.Query().Get("id")
	if jobID == "" {
		http.Error(w, "Missing 'id' parameter", http.StatusBadRequest)
		return
	}

	params := storage.ListScansParams{
		JobID:   jobID,
		Verdict: r.URL.Query().Get("verdict"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			params.Limit = limit
		}
	}

	rows, err := db.ListScans(r.Context(), params)
	if err != nil {
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}

	// Return an empty array instead of null when nothing landed yet.
	results := make([]ResultRow, 0, len(rows))
	for _, row := range rows {
		results = append(results, ResultRow{
			URL:       row.URL,
			RiskScore: row.RiskScore,
			Verdict:   row.Verdict,
			Data:      row.Data,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}
