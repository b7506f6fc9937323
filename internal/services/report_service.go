package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"gorm.io/gorm"

	apperrors "moneytracker/internal/errors"
	"moneytracker/internal/models"
)

var csvHeader = []string{"Date", "Type", "Category", "Account", "Amount", "Currency", "Description"}

// reportService renders a user's filtered transaction history as a file.
// Exports are unpaginated: the filter bounds the result set instead.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

func (s *reportService) transactions(userID string, filter TransactionFilter) ([]models.Transaction, error) {
	query := s.db.Where("user_id = ?", userID)
	query = applyTransactionFilters(query, filter)

	var transactions []models.Transaction
	err := query.Preload("Account").Preload("Category").
		Order("date DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// ExportCSV writes the filtered transactions as UTF-8 CSV. The output starts
// with a BOM so spreadsheet tools detect the encoding.
func (s *reportService) ExportCSV(userID string, filter TransactionFilter) ([]byte, error) {
	transactions, err := s.transactions(userID, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("\xEF\xBB\xBF")

	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, t := range transactions {
		record := []string{
			t.Date.Format("2006-01-02"),
			string(t.Type),
			t.Category.Name,
			t.Account.Name,
			formatAmount(t.Amount),
			t.Account.Currency,
			t.Description,
		}
		if err := w.Write(record); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return buf.Bytes(), nil
}

// ExportPDF renders the filtered transactions as a tabular PDF document.
func (s *reportService) ExportPDF(userID string, filter TransactionFilter) ([]byte, error) {
	transactions, err := s.transactions(userID, filter)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Transaction Report")
	pdf.Ln(12)

	widths := []float64{25, 20, 45, 45, 30, 20, 80}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range csvHeader {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, t := range transactions {
		cells := []string{
			t.Date.Format("2006-01-02"),
			string(t.Type),
			t.Category.Name,
			t.Account.Name,
			formatAmount(t.Amount),
			t.Account.Currency,
			truncate(t.Description, 60),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return buf.Bytes(), nil
}

// formatAmount renders cents as a decimal string, e.g. 123456 -> "1234.56".
func formatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-3]) + "..."
}
