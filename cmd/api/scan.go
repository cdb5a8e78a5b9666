package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"phishguard/internal/scanner"
)

type scanRequest struct {
	URL string `json:"url"`
}

func scanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "Invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	result, err := engine.Scan(r.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, scanner.ErrEmptyURL):
			http.Error(w, `{"error": "No URL provided"}`, http.StatusBadRequest)
		case errors.Is(err, scanner.ErrInvalidURL):
			http.Error(w, `{"error": "Invalid URL format"}`, http.StatusBadRequest)
		case r.Context().Err() != nil:
			http.Error(w, `{"error": "Scan timed out"}`, http.StatusGatewayTimeout)
		default:
			http.Error(w, `{"error": "Scan failed"}`, http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("❌ Error encoding /scan response for %s: %v", req.URL, err)
	}
}
