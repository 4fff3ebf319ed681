package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/household"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/websocket"
)

type HouseholdHandler struct {
	service *household.Service
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewHouseholdHandler(svc *household.Service, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{service: svc, hub: hub, logger: logger}
}

type householdRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/households
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID := auth.UserID(r.Context())

	var req householdRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	hh, membership, err := h.service.CreateHousehold(actorID, strings.TrimSpace(req.Name))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"household":  hh,
		"membership": membership,
	})
}

// List handles GET /api/households
func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	households, err := h.service.ListHouseholds(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if households == nil {
		households = []model.Household{}
	}
	writeJSON(w, http.StatusOK, households)
}

// Get handles GET /api/households/{id}
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	hh, err := h.service.GetHousehold(r.PathValue("id"), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, hh)
}

// Update handles PUT /api/households/{id}
func (h *HouseholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")

	var req householdRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	hh, err := h.service.UpdateHousehold(householdID, auth.UserID(r.Context()), strings.TrimSpace(req.Name))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(householdID, websocket.NewMessage(householdID, "household", "updated", hh.ID, nil))
	writeJSON(w, http.StatusOK, hh)
}

// Delete handles DELETE /api/households/{id}
func (h *HouseholdHandler) Delete(w http.ResponseWriter, r *http.Request) {
	householdID := r.PathValue("id")

	if err := h.service.DeleteHousehold(householdID, auth.UserID(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(householdID, websocket.NewMessage(householdID, "household", "deleted", householdID, nil))
	w.WriteHeader(http.StatusNoContent)
}
