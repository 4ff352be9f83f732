package httpapi

import (
	"errors"
	"net/http"

	"github.com/jg-Harshini/Trackfence/internal/models"
	"github.com/jg-Harshini/Trackfence/internal/repository"
	"github.com/jg-Harshini/Trackfence/internal/service"

	"go.uber.org/zap"
)

// SafeZoneHandler handles safe zone CRUD
type SafeZoneHandler struct {
	zones  *service.SafeZoneService
	logger *zap.Logger
}

func NewSafeZoneHandler(zones *service.SafeZoneService, logger *zap.Logger) *SafeZoneHandler {
	return &SafeZoneHandler{
		zones:  zones,
		logger: logger,
	}
}

// CreateSafeZone POST /api/v1/safezones
func (h *SafeZoneHandler) CreateSafeZone(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSafeZoneRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	zone, err := h.zones.CreateSafeZone(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidZone) {
			writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
			return
		}
		h.logger.Error("create safe zone failed", zap.String("patient_id", req.PatientID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to create safe zone"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(zone))
}

// ListSafeZones GET /api/v1/safezones/{patientId}?active=
func (h *SafeZoneHandler) ListSafeZones(w http.ResponseWriter, r *http.Request, patientID string) {
	activeOnly := parseBool(r.URL.Query().Get("active"))

	zones, err := h.zones.ListSafeZones(r.Context(), patientID, activeOnly)
	if err != nil {
		h.logger.Error("list safe zones failed", zap.String("patient_id", patientID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list safe zones"))
		return
	}
	if zones == nil {
		zones = []models.SafeZone{}
	}

	writeJSON(w, http.StatusOK, Ok(zones))
}

// UpdateSafeZone PUT /api/v1/safezones/zone/{zoneId}
func (h *SafeZoneHandler) UpdateSafeZone(w http.ResponseWriter, r *http.Request, zoneID string) {
	var req service.UpdateSafeZoneRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	zone, err := h.zones.UpdateSafeZone(r.Context(), zoneID, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidZone) {
			writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
			return
		}
		if errors.Is(err, repository.ErrZoneNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("safe zone not found"))
			return
		}
		h.logger.Error("update safe zone failed", zap.String("zone_id", zoneID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to update safe zone"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(zone))
}

// DeleteSafeZone DELETE /api/v1/safezones/zone/{zoneId}?permanent=
// Default is a soft delete: the zone is deactivated and stops
// participating in geofence evaluation.
func (h *SafeZoneHandler) DeleteSafeZone(w http.ResponseWriter, r *http.Request, zoneID string) {
	permanent := parseBool(r.URL.Query().Get("permanent"))

	if err := h.zones.DeleteSafeZone(r.Context(), zoneID, permanent); err != nil {
		if errors.Is(err, repository.ErrZoneNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("safe zone not found"))
			return
		}
		h.logger.Error("delete safe zone failed", zap.String("zone_id", zoneID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to delete safe zone"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]string{"zone_id": zoneID}))
}
