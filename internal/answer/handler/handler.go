package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/pipeline"
	apperrors "github.com/Adithya-Monish-Kumar-K/ragqa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/logger"
)

const maxBodyBytes = 64 << 10

type Answerer interface {
	Answer(ctx context.Context, question string, k int) (*pipeline.Result, error)
}

// CacheAdmin is implemented by the answer cache.
type CacheAdmin interface {
	Stats() (hits, misses int64)
	Invalidate(ctx context.Context) (int64, error)
}

// AskRequest is the body of POST /ask. A missing k uses the default.
type AskRequest struct {
	Question string `json:"question"`
	K        *int   `json:"k,omitempty"`
}

type Handler struct {
	answerer Answerer
	cache    CacheAdmin
	version  string
	defaultK int
	maxK     int
	logger   *slog.Logger
}

// New creates the /ask handler. cache may be nil.
func New(answerer Answerer, cache CacheAdmin, version string, defaultK, maxK int) *Handler {
	if defaultK < 1 {
		defaultK = 3
	}
	if maxK < defaultK {
		maxK = defaultK
	}
	return &Handler{
		answerer: answerer,
		cache:    cache,
		version:  version,
		defaultK: defaultK,
		maxK:     maxK,
		logger:   slog.Default().With("component", "ask-handler"),
	}
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req AskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeAppError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid JSON body"))
		return
	}

	k := h.defaultK
	if req.K != nil {
		k = *req.K
	}
	if k > h.maxK {
		k = h.maxK
	}

	result, err := h.answerer.Answer(ctx, req.Question, k)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			err = fmt.Errorf("%w: %v", apperrors.ErrTimeout, err)
		}
		log.Warn("ask failed", "error", err)
		h.writeAppError(w, err)
		return
	}

	log.Info("ask completed",
		"k", k,
		"returned", len(result.Docs),
		"canonical", result.Canonical,
		"cache_hit", result.CacheHit,
		"latency_ms", result.LatencyMs,
	)
	if result.Docs == nil {
		result.Docs = []pipeline.Doc{}
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "version": h.version})
}

func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	h.writeError(w, apperrors.HTTPStatusCode(err), apperrors.PublicMessage(err))
}
