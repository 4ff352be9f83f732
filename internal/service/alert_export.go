package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jg-Harshini/Trackfence/internal/models"

	"github.com/xuri/excelize/v2"
)

// AlertExportHeader 报警历史导出表头
var AlertExportHeader = []string{
	"Alert ID",
	"Kind",
	"Message",
	"Zone ID",
	"Latitude",
	"Longitude",
	"Triggered At",
	"Status",
	"Acknowledged At",
	"Acknowledged By",
}

// ExportAlerts 导出 patient 的报警历史为 Excel（caretaker 存档用）
func (s *AlertService) ExportAlerts(ctx context.Context, patientID string) ([]byte, error) {
	alerts, err := s.alerts.ListAlerts(ctx, patientID)
	if err != nil {
		return nil, err
	}

	return generateAlertExcel(alerts)
}

func generateAlertExcel(alerts []models.Alert) ([]byte, error) {
	f := excelize.NewFile()

	sheetName := "Alerts"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range AlertExportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for row, alert := range alerts {
		status := "open"
		ackAt := ""
		ackBy := ""
		if alert.Acknowledged {
			status = "closed"
			if alert.AcknowledgedAt != nil {
				ackAt = alert.AcknowledgedAt.Format(time.RFC3339)
			}
			if alert.AcknowledgedBy != nil {
				ackBy = *alert.AcknowledgedBy
			}
		}
		zoneID := ""
		if alert.ZoneID != nil {
			zoneID = *alert.ZoneID
		}

		values := []any{
			alert.AlertID,
			alert.Kind,
			alert.Message,
			zoneID,
			alert.PatientLatitude,
			alert.PatientLongitude,
			alert.TriggeredAt.Format(time.RFC3339),
			status,
			ackAt,
			ackBy,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	var buf []byte
	w, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	buf = w.Bytes()

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close excel file: %w", err)
	}

	return buf, nil
}
