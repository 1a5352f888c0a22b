package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/types/clerk"
)

const (
	maxWebhookBytes  = 64 << 10
	webhookTolerance = 5 * time.Minute
)

type AccountLifecycle interface {
	EnsureAccount(ctx context.Context, userID string) (bool, error)
	DeleteAccount(ctx context.Context, userID string) error
}

type WebhookHandler struct {
	accounts      AccountLifecycle
	secret        string
	allowUnsigned bool
	logger        logging.Logger
	now           func() time.Time
}

// NewWebhookHandler verifies Svix signatures with secret. With an empty
// secret every webhook is rejected unless AllowUnsigned was called.
func NewWebhookHandler(accounts AccountLifecycle, secret string, logger logging.Logger) *WebhookHandler {
	return &WebhookHandler{accounts: accounts, secret: secret, logger: logger, now: time.Now}
}

// AllowUnsigned accepts webhooks without a signature while no secret is
// configured. Local development only.
func (h *WebhookHandler) AllowUnsigned() {
	h.allowUnsigned = true
}

// POST /webhooks/clerk
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		http.Error(w, "Error reading body", http.StatusBadRequest)
		return
	}

	if !h.verifySignature(r.Header, body) {
		h.logger.Warn(ctx, "invalid webhook signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event clerk.ClerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Error parsing webhook", http.StatusBadRequest)
		return
	}

	var userData clerk.ClerkUserData
	if err := json.Unmarshal(event.Data, &userData); err != nil || userData.ID == "" {
		h.logger.Info(ctx, "ignoring webhook without user id", "type", event.Type)
		respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}

	switch event.Type {
	case "user.created":
		created, err := h.accounts.EnsureAccount(ctx, userData.ID)
		if err != nil {
			h.logger.Error(ctx, "failed to open ledger", "user_id", userData.ID, "error", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}
		h.logger.Info(ctx, "user created", "user_id", userData.ID, "ledger_created", created)

	case "user.deleted":
		if err := h.accounts.DeleteAccount(ctx, userData.ID); err != nil {
			h.logger.Error(ctx, "failed to delete account", "user_id", userData.ID, "error", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	default:
		h.logger.Debug(ctx, "unhandled webhook event", "type", event.Type)
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// verifySignature checks the svix-signature header: one or more
// space-separated "v1,<base64 hmac>" entries over "id.timestamp.body".
func (h *WebhookHandler) verifySignature(header http.Header, body []byte) bool {
	if h.secret == "" {
		return h.allowUnsigned
	}

	svixID := header.Get("svix-id")
	svixTimestamp := header.Get("svix-timestamp")
	svixSignature := header.Get("svix-signature")
	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		return false
	}

	ts, err := strconv.ParseInt(svixTimestamp, 10, 64)
	if err != nil {
		return false
	}
	if d := h.now().Sub(time.Unix(ts, 0)); d > webhookTolerance || d < -webhookTolerance {
		return false
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(h.secret, "whsec_"))
	if err != nil {
		key = []byte(h.secret)
	}
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.%s", svixID, svixTimestamp, body)
	expected := mac.Sum(nil)

	for _, entry := range strings.Fields(svixSignature) {
		version, sig, ok := strings.Cut(entry, ",")
		if !ok || version != "v1" {
			continue
		}
		provided, err := base64.StdEncoding.DecodeString(sig)
		if err == nil && hmac.Equal(expected, provided) {
			return true
		}
	}
	return false
}
