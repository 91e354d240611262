package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/duyhunghd6/repo-analyzer/internal/orchestrator"
	"github.com/duyhunghd6/repo-analyzer/internal/repo"
	"github.com/duyhunghd6/repo-analyzer/internal/store"
	"github.com/duyhunghd6/repo-analyzer/internal/types"
	"github.com/duyhunghd6/repo-analyzer/internal/util"
)

const maxBodyBytes = 1 << 20

type createRequest struct {
	GithubURL string `json:"github_url"`
}

type askRequest struct {
	Question string `json:"question"`
}

type queryRequest struct {
	Query  string `json:"query"`
	RepoID string `json:"repo_id"`
}

type searchResponse struct {
	Query   string              `json:"query"`
	Results []types.CodeElement `json:"results"`
	Total   int                 `json:"total"`
}

type queryResponse struct {
	Query         string   `json:"query"`
	Response      string   `json:"response"`
	RelevantFiles []string `json:"relevant_files"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Repo Analyzer API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"extensions": util.SupportedExtensions(),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.GithubURL) == "" {
		writeError(w, "github_url is required", http.StatusBadRequest)
		return
	}
	if !s.local && !repo.IsRemote(strings.TrimSpace(req.GithubURL)) {
		writeEngineError(w, fmt.Errorf("%w: local paths are not accepted", repo.ErrInvalidSource))
		return
	}

	rec, err := s.engine.Submit(req.GithubURL)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"repo_id": rec.ID, "status": "created"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list := s.engine.Store().List()
	for i := range list {
		list[i].Files = nil
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.engine.Store().Get(r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.engine.Reprocess(id); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"repo_id": id, "status": "processing"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	results, err := s.engine.Search(r.PathValue("id"), q)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Results: results, Total: len(results)})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, "question is required", http.StatusBadRequest)
		return
	}

	ans, err := s.engine.Ask(r.Context(), r.PathValue("id"), req.Question)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.RepoID) == "" {
		writeError(w, "query and repo_id are required", http.StatusBadRequest)
		return
	}

	ans, err := s.engine.Ask(r.Context(), req.RepoID, req.Query)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Query:         req.Query,
		Response:      ans.Answer,
		RelevantFiles: relevantFiles(ans.RelevantElements),
	})
}

// relevantFiles lists the distinct file paths of elements in first-seen
// order.
func relevantFiles(elements []types.CodeElement) []string {
	files := []string{}
	seen := make(map[string]bool)
	for _, e := range elements {
		if !seen[e.FilePath] {
			seen[e.FilePath] = true
			files = append(files, e.FilePath)
		}
	}
	return files
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// writeEngineError maps engine errors onto status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, "Repository not found", http.StatusNotFound)
	case errors.Is(err, store.ErrBusy), errors.Is(err, orchestrator.ErrNotReady):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, repo.ErrInvalidSource):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, orchestrator.ErrClosed):
		writeError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// writeError writes the error envelope. detail mirrors the message for
// clients that read FastAPI-style errors.
func writeError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]any{
		"error":  map[string]string{"message": msg},
		"detail": msg,
	})
}
