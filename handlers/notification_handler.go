package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"zcoinsAPI/internal/logging"
	"zcoinsAPI/internal/types/notification"
	"zcoinsAPI/middleware"
)

type DeviceRegistry interface {
	RegisterDevice(ctx context.Context, userID, token, platform string) error
}

type NotificationHandler struct {
	devices DeviceRegistry
	logger  logging.Logger
}

func NewNotificationHandler(devices DeviceRegistry, logger logging.Logger) *NotificationHandler {
	return &NotificationHandler{devices: devices, logger: logger}
}

// POST /api/v1/notifications/register-device
func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req notification.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" || !req.ValidPlatform() {
		respondWithError(w, http.StatusBadRequest, "token and platform (ios, android, web) are required")
		return
	}

	if err := h.devices.RegisterDevice(ctx, clerkID, req.Token, req.Platform); err != nil {
		respondWithDomainError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Device registered successfully"})
}
