package main

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"phishguard/internal/queue"
	"phishguard/internal/scanner"
	"phishguard/internal/storage"

	"github.com/google/uuid"
)

// UploadResponse is what we send back to the user.
type UploadResponse struct {
	JobID     string `json:"job_id"`
	TotalRows int    `json:"total_rows"`
	Message   string `json:"message"`
}

func uploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Max 10MB upload.
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "File too large or malformed", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing 'file' parameter in form data", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// URLs live in the first CSV column. Rows that fail input validation
	// are dropped here rather than queued to fail later.
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	var urls []string

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, "Invalid CSV format", http.StatusBadRequest)
			return
		}
		if len(record) == 0 || record[0] == "" {
			continue
		}
		if _, err := scanner.NormalizeTarget(record[0]); err != nil {
			continue
		}
		urls = append(urls, record[0])
	}

	if len(urls) == 0 {
		http.Error(w, "CSV contains no scannable URLs", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	job := &storage.Job{
		ID:         uuid.New().String(),
		Status:     storage.JobPending,
		TotalCount: len(urls),
	}
	if err := db.CreateJob(ctx, job); err != nil {
		log.Printf("❌ Failed to create job: %v\n", err)
		http.Error(w, "Failed to create job", http.StatusInternalServerError)
		return
	}

	for _, u := range urls {
		if err := queue.Enqueue(ctx, queue.Task{JobID: job.ID, URL: u}); err != nil {
			log.Printf("❌ Failed to enqueue %s: %v\n", u, err)
			http.Error(w, "Failed to enqueue scan tasks", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := UploadResponse{
		JobID:     job.ID,
		TotalRows: len(urls),
		Message:   "Job created successfully. Processing started.",
	}
	json.NewEncoder(w).Encode(resp)
}
