package main

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// requireAPIKey is middleware that validates the Bearer token in the
// Authorization header before allowing a request through to the handler.
func requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Failsafe: lock down the server if the operator forgot to set
		// the key. Returning 500 rather than 401 makes it obvious during
		// deployment that this is a server misconfiguration, not a bad
		// token.
		if cfg.APIKey == "" {
			http.Error(w, "Server configuration error: PHISHGUARD_API_KEY not set", http.StatusInternalServerError)
			return
		}

		authHeader := r.Header.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)

		// ConstantTimeCompare examines every byte of both inputs before
		// returning, so response latency carries no information about how
		// many leading characters of the guess were correct.
		if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.APIKey)) != 1 {
			http.Error(w, `{"error": "Unauthorized: Invalid or missing API Key"}`, http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type tokenResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Demo account backing the dashboard login. A real deployment replaces
// this with a user table.
const (
	demoEmail    = "admin@phishguard.com"
	demoPassword = "password"
	demoName     = "Admin"
)

func loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, `{"error": "Invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	emailOK := subtle.ConstantTimeCompare([]byte(creds.Email), []byte(demoEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(demoPassword)) == 1
	if !emailOK || !passOK {
		http.Error(w, `{"error": "Invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	token, err := tokens.Issue(demoEmail, demoName)
	if err != nil {
		http.Error(w, `{"error": "Failed to issue token"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenResponse{Token: token, Email: demoEmail, Name: demoName})
}

func signupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, `{"error": "Invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if creds.Email == "" || creds.Password == "" {
		http.Error(w, `{"error": "Email and password are required"}`, http.StatusBadRequest)
		return
	}

	name := creds.Name
	if name == "" {
		name = creds.Email
	}
	token, err := tokens.Issue(creds.Email, name)
	if err != nil {
		http.Error(w, `{"error": "Failed to issue token"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tokenResponse{Token: token, Email: creds.Email, Name: name})
}
