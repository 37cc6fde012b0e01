package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxBodyBytes   = 1 << 20
	processTimeout = 30 * time.Second
)

type HandlerConfig struct {
	VerifyToken string
	// AppSecret enables X-Hub-Signature-256 checks when set.
	AppSecret string
}

type Handler struct {
	svc    Service
	cfg    HandlerConfig
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewHandler(svc Service, cfg HandlerConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, cfg: cfg, logger: logger.Named("webhook")}
}

// VerifyWebhook answers Meta's subscription handshake.
func (h *Handler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != "subscribe" || h.cfg.VerifyToken == "" ||
		!hmac.Equal([]byte(token), []byte(h.cfg.VerifyToken)) {
		h.logger.Warn("webhook verification rejected", zap.String("mode", mode))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	h.logger.Info("webhook verified")
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// HandleWebhook acknowledges immediately and processes messages in the
// background so Meta never retries because of a slow reply.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	if h.cfg.AppSecret != "" && !validSignature(h.cfg.AppSecret, r.Header.Get("X-Hub-Signature-256"), body) {
		h.logger.Warn("invalid webhook signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	msgs := payload.messages()
	if len(msgs) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	// One goroutine per payload keeps each user's fragments in arrival
	// order; separate deliveries still run concurrently.
	ctx := context.WithoutCancel(r.Context())
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for _, msg := range msgs {
			h.process(ctx, msg)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func (h *Handler) process(ctx context.Context, msg *Message) {
	ctx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()
	if err := h.svc.HandleIncoming(ctx, msg); err != nil {
		h.logger.Error("processing failed", zap.String("wamid", msg.ID), zap.Error(err))
	}
}

// Wait blocks until background processing started by HandleWebhook is done.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) ResumeSession(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	if err := h.svc.Resume(r.Context(), user); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resumed", "user": NormalizePhone(user)})
}

func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats())
}

func validSignature(secret, header string, body []byte) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
