package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/jg-Harshini/Trackfence/internal/models"
	"github.com/jg-Harshini/Trackfence/internal/provider"
	"github.com/jg-Harshini/Trackfence/internal/repository"
	"github.com/jg-Harshini/Trackfence/internal/service"

	"go.uber.org/zap"
)

// LocationHandler handles location ingestion and queries
type LocationHandler struct {
	locations *service.LocationService
	logger    *zap.Logger
}

func NewLocationHandler(locations *service.LocationService, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{
		locations: locations,
		logger:    logger,
	}
}

type updateLocationRequest struct {
	PatientID string   `json:"patient_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Source    string   `json:"source,omitempty"`
}

// UpdateLocation POST /api/v1/locations/update
func (h *LocationHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req updateLocationRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	source := req.Source
	if source == "" {
		source = models.SourceManual
	}

	loc, err := h.locations.UpdateLocation(r.Context(), req.PatientID, req.Latitude, req.Longitude, req.Accuracy, source)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCoordinates) {
			writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
			return
		}
		h.logger.Error("update location failed", zap.String("patient_id", req.PatientID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to update location"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(loc))
}

type fetchLocationRequest struct {
	PatientID  string `json:"patient_id"`
	TrackingID string `json:"tracking_id"`
}

// FetchLocation POST /api/v1/locations/fetch
// Pulls coordinates from the external tracking provider, then runs the
// normal ingestion path.
func (h *LocationHandler) FetchLocation(w http.ResponseWriter, r *http.Request) {
	var req fetchLocationRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.PatientID == "" || req.TrackingID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("patient_id and tracking_id are required"))
		return
	}

	loc, err := h.locations.FetchAndUpdateLocation(r.Context(), req.PatientID, req.TrackingID)
	if err != nil {
		var perr *provider.ProviderError
		if errors.As(err, &perr) {
			h.logger.Warn("provider fetch failed",
				zap.String("patient_id", req.PatientID),
				zap.Int("status_code", perr.StatusCode),
				zap.Error(err),
			)
			writeJSON(w, http.StatusBadGateway, Fail("location provider unavailable"))
			return
		}
		h.logger.Error("fetch location failed", zap.String("patient_id", req.PatientID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to fetch location"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(loc))
}

// GetCurrentLocation GET /api/v1/locations/{patientId}/current
func (h *LocationHandler) GetCurrentLocation(w http.ResponseWriter, r *http.Request, patientID string) {
	loc, err := h.locations.GetCurrentLocation(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("no location recorded for patient"))
			return
		}
		h.logger.Error("get current location failed", zap.String("patient_id", patientID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get current location"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(loc))
}

// GetLocationHistory GET /api/v1/locations/{patientId}/history?start=&end=
// start/end are optional RFC3339 timestamps.
func (h *LocationHandler) GetLocationHistory(w http.ResponseWriter, r *http.Request, patientID string) {
	q := r.URL.Query()

	var (
		history []models.Location
		err     error
	)
	if q.Get("start") != "" || q.Get("end") != "" {
		start := parseTime(q.Get("start"), time.Time{})
		end := parseTime(q.Get("end"), time.Now().UTC())
		history, err = h.locations.GetLocationHistoryBetween(r.Context(), patientID, start, end)
	} else {
		history, err = h.locations.GetLocationHistory(r.Context(), patientID)
	}
	if err != nil {
		h.logger.Error("get location history failed", zap.String("patient_id", patientID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get location history"))
		return
	}
	if history == nil {
		history = []models.Location{}
	}

	writeJSON(w, http.StatusOK, Ok(history))
}
