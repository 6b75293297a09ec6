package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fintech_index/internal/api/middleware"
	"fintech_index/internal/app/service"
	"fintech_index/internal/common"
	"fintech_index/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

type CountryDataHandler struct {
	dataService *service.CountryDataService
}

func NewCountryDataHandler(dataService *service.CountryDataService) *CountryDataHandler {
	return &CountryDataHandler{dataService: dataService}
}

func (h *CountryDataHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Get("/years", h.years)
	r.Get("/countries", h.countries)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Get("/snapshot", h.snapshot)
	})

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.Authenticator)
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.create)
		adminRouter.Post("/bulk", h.bulkInsert)
		adminRouter.Post("/import", h.importCSV)
		adminRouter.Put("/{countryCode}/{year}", h.update)
		adminRouter.Delete("/delete-by-year/{year}", h.deleteByYear)
		adminRouter.Delete("/delete-by-country/{country}", h.deleteByCountry)
		adminRouter.Delete("/delete-selective", h.deleteSelective)
		adminRouter.Delete("/delete-all", h.deleteAll)
		adminRouter.Delete("/{countryCode}/{year}", h.delete)
	})
}

func (h *CountryDataHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := repository.CountryDataFilter{
		Country: r.URL.Query().Get("country"),
		Sort:    r.URL.Query().Get("sort"),
	}
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid year filter")
			return
		}
		filter.Year = &year
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		filter.Limit, _ = strconv.Atoi(limitStr)
	}

	data, err := h.dataService.List(r.Context(), filter)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, data)
}

func (h *CountryDataHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dataService.Stats(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *CountryDataHandler) years(w http.ResponseWriter, r *http.Request) {
	years, err := h.dataService.Years(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, years)
}

func (h *CountryDataHandler) countries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.dataService.Countries(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, countries)
}

func (h *CountryDataHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.dataService.Snapshot(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, snap)
}

func actorEmail(r *http.Request) string {
	if email, ok := middleware.GetUserEmailFromContext(r.Context()); ok {
		return email
	}
	return "admin"
}

func (h *CountryDataHandler) create(w http.ResponseWriter, r *http.Request) {
	var req service.CountryDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	data, err := h.dataService.Create(r.Context(), req, actorEmail(r))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, data)
}

func (h *CountryDataHandler) update(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "countryCode")
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid year")
		return
	}

	var req service.CountryDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	data, err := h.dataService.Update(r.Context(), code, year, req, actorEmail(r))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, data)
}

func (h *CountryDataHandler) delete(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "countryCode")
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid year")
		return
	}

	data, err := h.dataService.Delete(r.Context(), code, year, actorEmail(r))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{
		Message: "Country data deleted successfully",
		Deleted: data,
	})
}

func (h *CountryDataHandler) deleteByYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid year")
		return
	}

	count, err := h.dataService.DeleteByYear(r.Context(), year, actorEmail(r))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{
		Message:      fmt.Sprintf("Deleted %d records for year %d", count, year),
		DeletedCount: count,
	})
}

func (h *CountryDataHandler) deleteByCountry(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	count, err := h.dataService.DeleteByCountry(r.Context(), country, actorEmail(r))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{
		Message:      fmt.Sprintf("Deleted %d records for country %s", count, country),
		DeletedCount: count,
	})
}

func (h *CountryDataHandler) deleteSelective(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	count, err := h.dataService.DeleteSelective(r.Context(), req.IDs, actorEmail(r))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{
		Message:      fmt.Sprintf("Deleted %d records", count),
		DeletedCount: count,
	})
}

func (h *CountryDataHandler) deleteAll(w http.ResponseWriter, r *http.Request) {
	count, err := h.dataService.DeleteAll(r.Context(), actorEmail(r))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{
		Message:      fmt.Sprintf("Deleted all %d records", count),
		DeletedCount: count,
	})
}

func (h *CountryDataHandler) bulkInsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data []service.CountryDataRequest `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	result, err := h.dataService.BulkInsert(r.Context(), req.Data, actorEmail(r))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message":       fmt.Sprintf("Successfully added %d records", result.InsertedCount),
		"insertedCount": result.InsertedCount,
		"skippedCount":  result.SkippedCount,
	})
}

// importCSV accepts a CSV body; ?year= sets the default year for rows
// without one (the dashboard passes its currently selected year).
func (h *CountryDataHandler) importCSV(w http.ResponseWriter, r *http.Request) {
	defaultYear := time.Now().Year()
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid year")
			return
		}
		defaultYear = y
	}

	result, err := h.dataService.ImportCSV(r.Context(), r.Body, defaultYear, actorEmail(r))
	if err != nil {
		// A file with only invalid rows still carries the per-row
		// diagnostics; hand them to the caller with the error.
		if result != nil && len(result.RowErrors) > 0 {
			common.RespondWithJSON(w, common.HTTPStatusFromError(err), map[string]interface{}{
				"error":     err.Error(),
				"rowErrors": result.RowErrors,
			})
			return
		}
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, result)
}
