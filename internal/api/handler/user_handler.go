package handler

import (
	"encoding/json"
	"net/http"

	"fintech_index/internal/api/middleware"
	"fintech_index/internal/app/service"
	"fintech_index/internal/common"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.AdminOnly)

	r.Get("/", h.listUsers)
	r.Get("/unverified", h.listUnverified)
	r.Patch("/{userID}/verify", h.verifyUser)
	r.Patch("/{userID}", h.updateUser)
	r.Delete("/{userID}", h.deleteUser)
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context(), false)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) listUnverified(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context(), true)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) verifyUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.VerifyUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User verified",
		"user":    user,
	})
}

func (h *UserHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), chi.URLParam(r, "userID"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User updated",
		"user":    user,
	})
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.DeleteUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User deleted",
		"user":    user,
	})
}
