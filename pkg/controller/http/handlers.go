package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sortir-lab/sortir/pkg/domain/model"
	"github.com/sortir-lab/sortir/pkg/domain/types"
)

// defaultTopK is applied when the request omits top_k
const defaultTopK = 5

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	Query   string                `json:"query"`
	Results []*model.SearchResult `json:"results"`
}

type chatRequest struct {
	Query     string `json:"query"`
	TopK      int    `json:"top_k"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	*model.ChatResult
	SessionID model.SessionID `json:"session_id"`
}

type healthResponse struct {
	Status       string `json:"status"`
	NumDocuments int    `json:"num_documents"`
	EmbeddingDim int    `json:"embedding_dim"`
}

type sessionResponse struct {
	SessionID model.SessionID `json:"session_id"`
}

type messagesResponse struct {
	SessionID model.SessionID  `json:"session_id"`
	Messages  []*model.Message `json:"messages"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.uc.Stats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, healthResponse{
		Status:       "ok",
		NumDocuments: stats.NumDocuments,
		EmbeddingDim: stats.EmbeddingDim,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.TopK == 0 {
		req.TopK = defaultTopK
	}

	results, err := s.uc.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, searchResponse{Query: req.Query, Results: results})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.TopK == 0 {
		req.TopK = defaultTopK
	}

	result, sessionID, err := s.uc.Chat(r.Context(), model.SessionID(req.SessionID), req.Query, req.TopK)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, chatResponse{ChatResult: result, SessionID: sessionID})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	task, err := s.uc.StartRebuild(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusAccepted, task)
}

func (s *Server) handleRebuildStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	task, err := s.uc.GetRebuildTask(r.Context(), model.TaskID(taskID))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, task)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := s.uc.CreateSession(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, sessionResponse{SessionID: sessionID})
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := model.SessionID(chi.URLParam(r, "sessionID"))

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, r, goerr.New("invalid limit parameter",
				goerr.V("limit", v), goerr.T(types.TagInvalidArgument)))
			return
		}
		limit = n
	}

	messages, err := s.uc.SessionMessages(r.Context(), sessionID, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, messagesResponse{SessionID: sessionID, Messages: messages})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(err, "invalid request body", goerr.T(types.TagInvalidArgument))
	}
	return nil
}
