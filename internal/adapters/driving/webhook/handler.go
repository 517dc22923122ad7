// Package webhook serves the HMAC-verified GitHub callback endpoint that
// turns repository events into ingestion tasks.
package webhook

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // GitHub signs callbacks with HMAC-SHA1
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/ports/driven"
)

// CallbackPath is the route GitHub delivers events to. Subscriptions are
// registered against the same path below the configured page URL.
const CallbackPath = "/api/github/callback"

// maxBodySize caps the accepted payload. GitHub caps its own deliveries at
// 25 MB, anything larger is not a webhook.
const maxBodySize = 25 << 20

// signatureHeader carries the HMAC of the raw request body.
const signatureHeader = "X-Hub-Signature"

// eventHeader names the event that triggered the delivery.
const eventHeader = "X-GitHub-Event"

// Handler validates and routes GitHub webhook deliveries.
type Handler struct {
	repos  driven.RepositoryStore
	queue  driven.TaskQueue
	config driven.ConfigStore
}

// NewHandler creates the webhook handler.
func NewHandler(repos driven.RepositoryStore, queue driven.TaskQueue, config driven.ConfigStore) *Handler {
	return &Handler{repos: repos, queue: queue, config: config}
}

// Register mounts the callback and health routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+CallbackPath, h.handleCallback)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// payload is the subset of a delivery the router needs.
type payload struct {
	Repository struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
	Forkee *struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"forkee"`
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "reading body failed", http.StatusBadRequest)
		return
	}

	if status, msg := h.verifySignature(r.Header.Get(signatureHeader), body); status != 0 {
		http.Error(w, msg, status)
		return
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}
	if p.Repository.Owner.Login == "" || p.Repository.Name == "" {
		http.Error(w, "payload names no repository", http.StatusBadRequest)
		return
	}

	event := r.Header.Get(eventHeader)
	key := domain.RepoKey{Owner: p.Repository.Owner.Login, Name: p.Repository.Name}
	if err := h.route(r, event, key, &p); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, errUnhandledEvent) {
			// Deliveries for unknown repositories or events are accepted
			// and dropped, the hook outlives local state.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		log.Error().Err(err).Str("event", event).Str("repo", key.String()).Msg("webhook routing failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// verifySignature checks the sha1=<hex> HMAC header against the raw body.
// It returns a non-zero HTTP status and message on rejection.
func (h *Handler) verifySignature(header string, body []byte) (int, string) {
	if header == "" {
		return http.StatusForbidden, "permission denied"
	}
	parts := strings.SplitN(header, "=", 2)
	if len(parts) != 2 {
		return http.StatusBadRequest, "malformed signature header"
	}
	if parts[0] != "sha1" {
		return http.StatusBadRequest, "operation not supported"
	}
	claimed, err := hex.DecodeString(parts[1])
	if err != nil {
		return http.StatusBadRequest, "malformed signature header"
	}

	mac := hmac.New(sha1.New, []byte(h.config.GetString(driven.ConfigWebhookSecret)))
	mac.Write(body)
	if !hmac.Equal(claimed, mac.Sum(nil)) {
		return http.StatusForbidden, "permission denied"
	}
	return 0, ""
}

var errUnhandledEvent = errors.New("unhandled event")

// route maps a verified delivery onto queue work.
func (h *Handler) route(r *http.Request, event string, key domain.RepoKey, p *payload) error {
	ctx := r.Context()
	repo, err := h.repos.GetByKey(ctx, key)
	if err != nil {
		return err
	}

	switch event {
	case "push":
		_, err = h.queue.Enqueue(ctx, domain.TaskUpdate, repo.ID)
		return err

	case "watch", "issues", "pull_request":
		_, err = h.queue.Enqueue(ctx, domain.TaskUpdateStats, repo.ID)
		return err

	case "fork":
		if p.Forkee == nil || p.Forkee.Owner.Login == "" || p.Forkee.Name == "" {
			return errUnhandledEvent
		}
		forkKey := domain.RepoKey{Owner: p.Forkee.Owner.Login, Name: p.Forkee.Name}
		fork, _, err := h.repos.GetOrCreate(ctx, forkKey)
		if err != nil {
			return err
		}
		if _, err := h.queue.Enqueue(ctx, domain.TaskUpdate, fork.ID); err != nil {
			return err
		}
		// The origin picked up a new fork, refresh its counters too.
		_, err = h.queue.Enqueue(ctx, domain.TaskUpdateStats, repo.ID)
		return err

	default:
		return errUnhandledEvent
	}
}
