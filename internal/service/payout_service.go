package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"verkstad/internal/database"
	"verkstad/internal/domain"
	"verkstad/internal/events"
	"verkstad/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type PayoutService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	exportPath string
	logger     *zerolog.Logger
}

func NewPayoutService(repo domain.Repository, eventBus domain.EventPublisher, exportPath string, logger *zerolog.Logger) *PayoutService {
	return &PayoutService{
		repo:       repo,
		eventBus:   eventBus,
		exportPath: exportPath,
		logger:     logger,
	}
}

// GeneratePayouts пересчитывает месячные отчеты по всем активным мастерским.
// Мастерские без завершенных работ за месяц отчета не получают. Повторный
// запуск за тот же месяц перезаписывает суммы, сохраняя отметку об оплате.
func (s *PayoutService) GeneratePayouts(ctx context.Context, month, year int) ([]models.PayoutReport, error) {
	if month < 1 || month > 12 || year < 2000 {
		return nil, fmt.Errorf("invalid payout period %d-%d", year, month)
	}

	workshops, err := s.repo.GetEligibleWorkshops(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var reports []models.PayoutReport
	for _, w := range workshops {
		bookings, err := s.repo.GetDoneBookingsForMonth(ctx, w.ID, month, year)
		if err != nil {
			return nil, err
		}
		if len(bookings) == 0 {
			continue
		}

		total := decimal.Zero
		commission := decimal.Zero
		workshopAmount := decimal.Zero
		for _, b := range bookings {
			total = total.Add(b.TotalAmount)
			commission = commission.Add(b.Commission)
			workshopAmount = workshopAmount.Add(b.WorkshopAmount)
		}

		report := models.PayoutReport{
			WorkshopID:     w.ID,
			Month:          month,
			Year:           year,
			TotalJobs:      len(bookings),
			TotalAmount:    total,
			Commission:     commission,
			WorkshopAmount: workshopAmount,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := s.repo.UpsertPayoutReport(ctx, &report); err != nil {
			return nil, err
		}

		s.publishEvent(&report)
		reports = append(reports, report)
	}

	s.logger.Info().Int("month", month).Int("year", year).Int("reports", len(reports)).Msg("payout reports generated")
	return reports, nil
}

func (s *PayoutService) ListPayouts(ctx context.Context, f database.PayoutFilter) ([]models.PayoutReport, error) {
	return s.repo.GetPayoutReports(ctx, f)
}

func (s *PayoutService) MarkPaid(ctx context.Context, id string) error {
	return s.repo.MarkPayoutPaid(ctx, id)
}

// ExportPayoutsToExcel выгружает отчеты в xlsx для бухгалтерии
func (s *PayoutService) ExportPayoutsToExcel(ctx context.Context, f database.PayoutFilter) (string, error) {
	if err := os.MkdirAll(s.exportPath, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	reports, err := s.repo.GetPayoutReports(ctx, f)
	if err != nil {
		return "", err
	}

	file := excelize.NewFile()
	defer file.Close()

	sheetName := "Payouts"
	index, err := file.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	file.SetActiveSheet(index)

	headers := []string{
		"Report ID", "Workshop", "Month", "Year", "Jobs",
		"Total", "Commission", "Payout", "Paid", "Paid At",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = file.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := file.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	_ = file.SetCellStyle(sheetName, "A1", "J1", headerStyle)

	workshopNames := s.workshopNames(ctx, reports)
	for i, report := range reports {
		row := i + 2
		_ = file.SetCellValue(sheetName, fmt.Sprintf("A%d", row), report.ID)
		_ = file.SetCellValue(sheetName, fmt.Sprintf("B%d", row), workshopNames[report.WorkshopID])
		_ = file.SetCellValue(sheetName, fmt.Sprintf("C%d", row), report.Month)
		_ = file.SetCellValue(sheetName, fmt.Sprintf("D%d", row), report.Year)
		_ = file.SetCellValue(sheetName, fmt.Sprintf("E%d", row), report.TotalJobs)
		_ = file.SetCellValue(sheetName, fmt.Sprintf("F%d", row), report.TotalAmount.String())
		_ = file.SetCellValue(sheetName, fmt.Sprintf("G%d", row), report.Commission.String())
		_ = file.SetCellValue(sheetName, fmt.Sprintf("H%d", row), report.WorkshopAmount.String())
		_ = file.SetCellValue(sheetName, fmt.Sprintf("I%d", row), boolToYesNo(report.IsPaid))
		if report.PaidAt != nil {
			_ = file.SetCellValue(sheetName, fmt.Sprintf("J%d", row), report.PaidAt.Format("02.01.2006 15:04"))
		}
	}

	_ = file.SetColWidth(sheetName, "A", "A", 38)
	_ = file.SetColWidth(sheetName, "B", "B", 30)
	_ = file.SetColWidth(sheetName, "C", "E", 8)
	_ = file.SetColWidth(sheetName, "F", "H", 14)
	_ = file.SetColWidth(sheetName, "I", "J", 18)

	_ = file.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("payouts_export_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(s.exportPath, fileName)

	if err := file.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	s.logger.Info().Str("file_path", filePath).Msg("payouts Excel file created")
	return filePath, nil
}

func (s *PayoutService) workshopNames(ctx context.Context, reports []models.PayoutReport) map[string]string {
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.WorkshopID)
	}

	names := make(map[string]string, len(ids))
	workshops, err := s.repo.GetWorkshopsByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to resolve workshop names for export")
		return names
	}
	for id, w := range workshops {
		names[id] = w.CompanyName
	}
	return names
}

func (s *PayoutService) publishEvent(report *models.PayoutReport) {
	if s.eventBus == nil {
		return
	}

	payload := events.PayoutEventPayload{
		WorkshopID: report.WorkshopID,
		Month:      report.Month,
		Year:       report.Year,
		TotalJobs:  report.TotalJobs,
	}

	if err := s.eventBus.PublishJSON(events.EventPayoutGenerated, payload); err != nil {
		s.logger.Error().Err(err).Str("workshop_id", report.WorkshopID).Msg("publish event error")
	}
}

func boolToYesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
