package handler

import (
	"encoding/json"
	"net/http"

	"fintech_index/internal/api/middleware"
	"fintech_index/internal/app/service"
	"fintech_index/internal/common"
	"fintech_index/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type StartupHandler struct {
	startupService *service.StartupService
}

func NewStartupHandler(startupService *service.StartupService) *StartupHandler {
	return &StartupHandler{startupService: startupService}
}

func (h *StartupHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{startupSlug}", h.getBySlug)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Use(middleware.RequireAnyRole(model.RoleAdmin, model.RoleEditor, model.RoleViewer))
		authed.Post("/", h.create)
	})
}

func (h *StartupHandler) list(w http.ResponseWriter, r *http.Request) {
	startups, err := h.startupService.List(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, startups)
}

func (h *StartupHandler) getBySlug(w http.ResponseWriter, r *http.Request) {
	startup, err := h.startupService.GetBySlug(r.Context(), chi.URLParam(r, "startupSlug"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, startup)
}

func (h *StartupHandler) create(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.GetUserEmailFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateStartupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	startup, err := h.startupService.Create(r.Context(), req, email)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, startup)
}
