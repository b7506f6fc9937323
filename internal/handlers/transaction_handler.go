package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "moneytracker/internal/errors"
	"moneytracker/internal/models"
	"moneytracker/internal/pagination"
	"moneytracker/internal/services"
	"moneytracker/internal/uuid"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	AccountID   string                 `json:"account_id" binding:"required,uuid"`
	CategoryID  string                 `json:"category_id" binding:"required,uuid"`
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount      int64                  `json:"amount" binding:"required,gt=0"`
	Date        string                 `json:"date"`
	Description string                 `json:"description" binding:"max=500"`
	Tags        []string               `json:"tags" binding:"max=20,dive,max=50"`
}

// UpdateTransactionRequest represents the request payload for updating a
// transaction. Omitted fields keep their stored values.
type UpdateTransactionRequest struct {
	AccountID   *string                 `json:"account_id" binding:"omitempty,uuid"`
	CategoryID  *string                 `json:"category_id" binding:"omitempty,uuid"`
	Type        *models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	Amount      *int64                  `json:"amount" binding:"omitempty,gt=0"`
	Date        *string                 `json:"date"`
	Description *string                 `json:"description" binding:"omitempty,max=500"`
	Tags        *[]string               `json:"tags" binding:"omitempty,max=20,dive,max=50"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record an income or expense transaction and apply it to the account balance
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = parseFlexibleTime(req.Date)
		if err != nil {
			respondWithError(c, err)
			return
		}
	}

	transaction, err := h.transactionService.CreateTransaction(
		userID,
		req.AccountID,
		req.CategoryID,
		req.Type,
		req.Amount,
		date,
		req.Description,
		req.Tags,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// ListTransactions handles the retrieval of transactions for a user
// @Summary     List transactions
// @Description Get a paginated, filterable, sortable list of the user's transactions
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page        query int    false "Page number (default 1)"
// @Param       limit       query int    false "Items per page (default 50, max 100)"
// @Param       start_date  query string false "Earliest date (RFC 3339 or YYYY-MM-DD)"
// @Param       end_date    query string false "Latest date (RFC 3339 or YYYY-MM-DD)"
// @Param       type        query string false "Transaction type (income or expense)"
// @Param       category_id query string false "Category ID"
// @Param       account_id  query string false "Account ID"
// @Param       sort_by     query string false "Sort field (date or amount, default date)"
// @Param       sort_order  query string false "Sort order (asc or desc, default desc)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sort := services.TransactionSort{By: c.Query("sort_by"), Order: c.Query("sort_order")}

	result, err := h.transactionService.ListTransactions(userID, page, filter, sort)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Description Get a specific transaction by ID for the authenticated user
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles updating a transaction.
// @Summary     Update transaction
// @Description Update a transaction. Balance effects of the old values are reversed and the new values applied atomically.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Updated transaction details"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input or transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.TransactionUpdateFields{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Tags:        req.Tags,
	}
	if req.Date != nil && *req.Date != "" {
		parsed, err := parseFlexibleTime(*req.Date)
		if err != nil {
			respondWithError(c, err)
			return
		}
		fields.Date = &parsed
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, transactionID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles deleting a transaction.
// @Summary     Delete transaction
// @Description Delete a transaction and reverse its effect on the account balance
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     204 "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseTransactionFilter builds a TransactionFilter from query parameters.
func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("start_date"); v != "" {
		parsed, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start_date")
		}
		filter.StartDate = &parsed
	}
	if v := c.Query("end_date"); v != "" {
		parsed, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end_date")
		}
		filter.EndDate = &parsed
	}
	if v := c.Query("type"); v != "" {
		if v != string(models.TransactionTypeIncome) && v != string(models.TransactionTypeExpense) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income or expense")
		}
		transactionType := models.TransactionType(v)
		filter.Type = &transactionType
	}
	if v := c.Query("category_id"); v != "" {
		if !uuid.IsValid(v) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category_id")
		}
		filter.CategoryID = &v
	}
	if v := c.Query("account_id"); v != "" {
		if !uuid.IsValid(v) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid account_id")
		}
		filter.AccountID = &v
	}
	return filter, nil
}
