package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moneytracker/internal/models"
	"moneytracker/internal/services"
)

// DashboardHandler handles dashboard requests.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard returns the user's financial overview
// @Summary     Get dashboard
// @Description Get total balance, period income/expenses, category breakdowns, recent transactions and budget progress. The period defaults to the current calendar month.
// @Tags        dashboard
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Period start (RFC 3339 or YYYY-MM-DD)"
// @Param       end_date   query string false "Period end (RFC 3339 or YYYY-MM-DD)"
// @Success     200 {object} services.DashboardSummary "Dashboard data"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	start, end := services.PeriodWindow(models.BudgetPeriodMonth, time.Now())
	if v := c.Query("start_date"); v != "" {
		start, err = parseFlexibleTime(v)
		if err != nil {
			respondWithError(c, err)
			return
		}
	}
	if v := c.Query("end_date"); v != "" {
		end, err = parseFlexibleTime(v)
		if err != nil {
			respondWithError(c, err)
			return
		}
		// A bare date means the whole day.
		if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 {
			end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
	}

	summary, err := h.dashboardService.GetDashboard(userID, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
