package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jg-Harshini/Trackfence/internal/models"
	"github.com/jg-Harshini/Trackfence/internal/repository"
	"github.com/jg-Harshini/Trackfence/internal/service"

	"go.uber.org/zap"
)

// AlertHandler handles alert queries, acknowledgement and export
type AlertHandler struct {
	alerts *service.AlertService
	logger *zap.Logger
}

func NewAlertHandler(alerts *service.AlertService, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		alerts: alerts,
		logger: logger,
	}
}

// ListAlerts GET /api/v1/alerts/{patientId}?unacknowledged=
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request, patientID string) {
	unackedOnly := parseBool(r.URL.Query().Get("unacknowledged"))

	alerts, err := h.alerts.ListAlerts(r.Context(), patientID, unackedOnly)
	if err != nil {
		h.logger.Error("list alerts failed", zap.String("patient_id", patientID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list alerts"))
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}

	writeJSON(w, http.StatusOK, Ok(alerts))
}

type acknowledgeAlertRequest struct {
	CaretakerID string `json:"caretaker_id"`
}

// AcknowledgeAlert PUT /api/v1/alerts/{alertId}/acknowledge
func (h *AlertHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request, alertID string) {
	var req acknowledgeAlertRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.CaretakerID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("caretaker_id is required"))
		return
	}

	alert, err := h.alerts.AcknowledgeAlert(r.Context(), alertID, req.CaretakerID)
	if err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("alert not found"))
			return
		}
		h.logger.Error("acknowledge alert failed", zap.String("alert_id", alertID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to acknowledge alert"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(alert))
}

// ExportAlerts GET /api/v1/alerts/{patientId}/export
// Returns the patient's alert history as an xlsx workbook.
func (h *AlertHandler) ExportAlerts(w http.ResponseWriter, r *http.Request, patientID string) {
	data, err := h.alerts.ExportAlerts(r.Context(), patientID)
	if err != nil {
		h.logger.Error("export alerts failed", zap.String("patient_id", patientID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export alerts"))
		return
	}

	filename := fmt.Sprintf("alerts_%s_%s.xlsx", patientID, time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
