package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/household"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/websocket"
)

type MemberHandler struct {
	service *household.Service
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewMemberHandler(svc *household.Service, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{service: svc, hub: hub, logger: logger}
}

// List handles GET /api/households/{id}/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.PathValue("id"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if members == nil {
		members = []model.Membership{}
	}
	writeJSON(w, http.StatusOK, members)
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Add handles POST /api/households/{id}/members
func (h *MemberHandler) Add(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")

	var req addMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.service.AddMember(householdID, auth.UserID(r.Context()), req.UserID, model.Role(req.Role))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(householdID, websocket.NewMessage(householdID, "member", "added", m.ID, nil))
	writeJSON(w, http.StatusCreated, m)
}

// Remove handles DELETE /api/households/{id}/members/{memberID}
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")
	memberID := r.PathValue("memberID")

	if err := h.service.RemoveMember(householdID, auth.UserID(r.Context()), memberID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(householdID, websocket.NewMessage(householdID, "member", "removed", memberID, nil))
	w.WriteHeader(http.StatusNoContent)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// ChangeRole handles PUT /api/households/{id}/members/{memberID}/role
func (h *MemberHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")
	memberID := r.PathValue("memberID")

	var req changeRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.service.ChangeRole(householdID, auth.UserID(r.Context()), memberID, model.Role(req.Role))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(householdID, websocket.NewMessage(householdID, "member", "role_changed", m.ID, map[string]any{"role": m.Role}))
	writeJSON(w, http.StatusOK, m)
}

// Leave handles POST /api/households/{id}/leave
func (h *MemberHandler) Leave(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")
	actorID := auth.UserID(r.Context())

	if err := h.service.Leave(householdID, actorID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(householdID, websocket.NewMessage(householdID, "member", "left", actorID, nil))
	w.WriteHeader(http.StatusNoContent)
}

type transferRequest struct {
	NewOwnerUserID string `json:"new_owner_user_id"`
}

// Transfer handles POST /api/households/{id}/transfer
func (h *MemberHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")

	var req transferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.TransferOwnership(householdID, auth.UserID(r.Context()), req.NewOwnerUserID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(householdID, websocket.NewMessage(householdID, "household", "owner_changed", req.NewOwnerUserID, nil))
	w.WriteHeader(http.StatusNoContent)
}
