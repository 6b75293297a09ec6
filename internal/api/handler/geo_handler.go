package handler

import (
	"net/http"
	"strconv"
	"time"

	"fintech_index/internal/app/service"
	"fintech_index/internal/common"

	"github.com/go-chi/chi/v5"
)

type GeoHandler struct {
	geoService *service.GeoService
}

func NewGeoHandler(geoService *service.GeoService) *GeoHandler {
	return &GeoHandler{geoService: geoService}
}

func (h *GeoHandler) RegisterRoutes(r chi.Router) {
	r.Get("/map", h.mapView)
}

func (h *GeoHandler) mapView(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid year")
			return
		}
		year = y
	}

	view, err := h.geoService.BuildMap(r.Context(), year)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, view)
}
