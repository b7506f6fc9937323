package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moneytracker/internal/services"
)

// ReportHandler handles transaction export requests.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ExportCSV streams the user's filtered transactions as a CSV download
// @Summary     Export transactions as CSV
// @Description Download the filtered transaction history as a CSV file
// @Tags        reports
// @Produce     text/csv
// @Security    BearerAuth
// @Param       start_date  query string false "Earliest date (RFC 3339 or YYYY-MM-DD)"
// @Param       end_date    query string false "Latest date (RFC 3339 or YYYY-MM-DD)"
// @Param       type        query string false "Transaction type (income or expense)"
// @Param       category_id query string false "Category ID"
// @Param       account_id  query string false "Account ID"
// @Success     200 {file} file "CSV file"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/export/csv [get]
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data, err := h.reportService.ExportCSV(userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("transactions_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ExportPDF streams the user's filtered transactions as a PDF download
// @Summary     Export transactions as PDF
// @Description Download the filtered transaction history as a PDF file
// @Tags        reports
// @Produce     application/pdf
// @Security    BearerAuth
// @Param       start_date  query string false "Earliest date (RFC 3339 or YYYY-MM-DD)"
// @Param       end_date    query string false "Latest date (RFC 3339 or YYYY-MM-DD)"
// @Param       type        query string false "Transaction type (income or expense)"
// @Param       category_id query string false "Category ID"
// @Param       account_id  query string false "Account ID"
// @Success     200 {file} file "PDF file"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/export/pdf [get]
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data, err := h.reportService.ExportPDF(userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("transactions_%s.pdf", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
