package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/household"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/websocket"
)

type InvitationHandler struct {
	service *household.Service
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewInvitationHandler(svc *household.Service, hub *websocket.Hub, logger *slog.Logger) *InvitationHandler {
	return &InvitationHandler{service: svc, hub: hub, logger: logger}
}

// statusFilter parses the optional ?status= query parameter. The bool
// is false when the value is not a known status.
func statusFilter(r *http.Request) (*model.InvitationStatus, bool) {
	q := r.URL.Query().Get("status")
	if q == "" {
		return nil, true
	}
	st := model.InvitationStatus(q)
	if !st.Valid() {
		return nil, false
	}
	return &st, true
}

type sendInvitationRequest struct {
	InvitedUserID string     `json:"invited_user_id"`
	InvitedEmail  string     `json:"invited_email"`
	Role          string     `json:"role"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

// Send handles POST /api/households/{id}/invitations
func (h *InvitationHandler) Send(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")

	var req sendInvitationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	inv, err := h.service.SendInvitation(householdID, auth.UserID(r.Context()), household.SendInvitationInput{
		InvitedUserID: req.InvitedUserID,
		InvitedEmail:  req.InvitedEmail,
		Role:          model.Role(req.Role),
		ExpiresAt:     req.ExpiresAt,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(householdID, websocket.NewMessage(householdID, "invitation", "created", inv.ID, nil))
	writeJSON(w, http.StatusCreated, inv)
}

// List handles GET /api/households/{id}/invitations
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	status, ok := statusFilter(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown status", "validation"))
		return
	}

	invs, err := h.service.ListInvitations(r.PathValue("id"), auth.UserID(r.Context()), status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if invs == nil {
		invs = []model.Invitation{}
	}
	writeJSON(w, http.StatusOK, invs)
}

// Mine handles GET /api/invitations
func (h *InvitationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	status, ok := statusFilter(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown status", "validation"))
		return
	}

	invs, err := h.service.ListMyInvitations(auth.UserID(r.Context()), status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if invs == nil {
		invs = []model.Invitation{}
	}
	writeJSON(w, http.StatusOK, invs)
}

// Accept handles POST /api/invitations/{id}/accept
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.AcceptInvitation(r.PathValue("id"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(m.HouseholdID, websocket.NewMessage(m.HouseholdID, "member", "added", m.ID, nil))
	writeJSON(w, http.StatusOK, m)
}

// Decline handles POST /api/invitations/{id}/decline
func (h *InvitationHandler) Decline(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeclineInvitation(r.PathValue("id"), auth.UserID(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cancel handles DELETE /api/households/{id}/invitations/{invitationID}
func (h *InvitationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")
	invitationID := r.PathValue("invitationID")

	if err := h.service.CancelInvitation(householdID, invitationID, auth.UserID(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(householdID, websocket.NewMessage(householdID, "invitation", "cancelled", invitationID, nil))
	w.WriteHeader(http.StatusNoContent)
}

type updateInvitationRequest struct {
	Role      *string    `json:"role"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Update handles PATCH /api/households/{id}/invitations/{invitationID}
func (h *InvitationHandler) Update(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")
	invitationID := r.PathValue("invitationID")

	var req updateInvitationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var role *model.Role
	if req.Role != nil {
		rl := model.Role(*req.Role)
		role = &rl
	}

	inv, err := h.service.UpdateInvitation(householdID, invitationID, auth.UserID(r.Context()), role, req.ExpiresAt)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, inv)
}

type resendInvitationRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
}

// Resend handles POST /api/households/{id}/invitations/{invitationID}/resend
func (h *InvitationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")
	invitationID := r.PathValue("invitationID")

	var req resendInvitationRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	inv, err := h.service.ResendInvitation(householdID, invitationID, auth.UserID(r.Context()), req.ExpiresAt)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, inv)
}
