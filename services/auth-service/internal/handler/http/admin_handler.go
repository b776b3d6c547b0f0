package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

const maxBlockHours = 24 * 365

type blockRequest struct {
	IPAddress string `json:"ip_address"`
	Reason    string `json:"reason"`
	Hours     int    `json:"hours"`
}

// handleListBlocks GET /admin/blocks
func (h *Handler) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.blocks.ListActiveBlocks(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"blocks": blocks})
}

// handleBlock POST /admin/blocks
func (h *Handler) handleBlock(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.validator.ValidateIP(req.IPAddress, "ip_address"); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.validator.ValidateRange(req.Hours, 1, maxBlockHours, "hours"); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.validator.ValidateStringLength(req.Reason, "reason", 0, 255); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.blocks.BlockManually(r.Context(), req.IPAddress, req.Reason, req.Hours); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"ip_address": req.IPAddress,
		"hours":      req.Hours,
	})
}

// handleUnblock DELETE /admin/blocks/{ip}
func (h *Handler) handleUnblock(w http.ResponseWriter, r *http.Request) {
	ip := mux.Vars(r)["ip"]
	if err := h.validator.ValidateIP(ip, "ip"); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.blocks.Unblock(r.Context(), ip); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUnblockAll DELETE /admin/blocks
func (h *Handler) handleUnblockAll(w http.ResponseWriter, r *http.Request) {
	count, err := h.blocks.UnblockAll(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"unblocked": count})
}

// handleListSessions GET /admin/sessions/{username}
func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListActive(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// handleRevokeSessions DELETE /admin/sessions/{username}
func (h *Handler) handleRevokeSessions(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	count, err := h.auth.LogoutAll(r.Context(), username)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.log.Info("Sessions revoked by administrator",
		logger.CtxField(r.Context()),
		logger.String("username", username),
		logger.String("actor", service.ActorFromContext(r.Context())),
		logger.Int64("count", count))
	writeJSON(w, http.StatusOK, map[string]interface{}{"deactivated": count})
}

// handleListAttempts GET /admin/attempts/{username}?limit=N
func (h *Handler) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.handleError(w, r, domain.ErrValidation.WithDetails("limit must be a number"))
			return
		}
		limit = parsed
	}

	attempts, err := h.blocks.RecentAttempts(r.Context(), mux.Vars(r)["username"], limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}
