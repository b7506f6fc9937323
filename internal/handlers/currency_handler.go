package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneytracker/internal/errors"
	"moneytracker/internal/services"
	"moneytracker/internal/validator"
)

// CurrencyHandler handles exchange-rate requests.
type CurrencyHandler struct {
	currencyService services.CurrencyServicer
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(currencyService services.CurrencyServicer) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

// ConvertRequest represents the request payload for converting an amount
type ConvertRequest struct {
	Amount int64  `json:"amount" binding:"gte=0"`
	From   string `json:"from" binding:"required,currency"`
	To     string `json:"to" binding:"required,currency"`
}

// ListRates returns all stored exchange rates
// @Summary     List exchange rates
// @Description Get all stored exchange rates, newest first
// @Tags        currencies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.CurrencyRate "Stored rates"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /currencies/rates [get]
func (h *CurrencyHandler) ListRates(c *gin.Context) {
	rates, err := h.currencyService.ListRates()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rates": rates})
}

// ResolveRate returns the exchange rate between two currencies
// @Summary     Resolve exchange rate
// @Description Get the rate from one currency to another, using the reciprocal of the reverse pair when no direct rate is stored
// @Tags        currencies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from path string true "Source currency code"
// @Param       to   path string true "Target currency code"
// @Success     200 {object} map[string]interface{} "Resolved rate"
// @Failure     400 {object} ErrorResponse "Unsupported currency"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No rate for this pair"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /currencies/rates/{from}/{to} [get]
func (h *CurrencyHandler) ResolveRate(c *gin.Context) {
	from := c.Param("from")
	to := c.Param("to")
	if !validator.Currency(from) || !validator.Currency(to) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported currency"))
		return
	}

	rate, err := h.currencyService.Resolve(from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "rate": rate})
}

// Convert converts an amount between currencies
// @Summary     Convert an amount
// @Description Convert an amount in minor units between currencies at the current rate
// @Tags        currencies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ConvertRequest true "Conversion request"
// @Success     200 {object} services.Conversion "Conversion result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No rate for this pair"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /currencies/convert [post]
func (h *CurrencyHandler) Convert(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	conversion, err := h.currencyService.Convert(req.Amount, req.From, req.To)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, conversion)
}

// RefreshRates triggers an immediate quote refresh
// @Summary     Refresh exchange rates
// @Description Fetch current quotes from the external source and update the stored rates
// @Tags        currencies
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     202 {object} map[string]string "Refresh completed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /currencies/rates/update [post]
func (h *CurrencyHandler) RefreshRates(c *gin.Context) {
	if err := h.currencyService.Refresh(c.Request.Context()); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "refreshed"})
}
