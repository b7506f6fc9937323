package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "moneytracker/internal/errors"
	"moneytracker/internal/pagination"
	"moneytracker/internal/services"
)

// TransferHandler handles transfer-related requests.
type TransferHandler struct {
	transferService services.TransferServicer
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferService services.TransferServicer) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// CreateTransferRequest represents the request payload for creating a transfer
type CreateTransferRequest struct {
	FromAccountID string `json:"from_account_id" binding:"required,uuid"`
	ToAccountID   string `json:"to_account_id" binding:"required,uuid"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Date          string `json:"date"`
	Description   string `json:"description" binding:"max=500"`
}

// CreateTransfer handles moving money between two accounts
// @Summary     Create a transfer
// @Description Move money between two of the user's accounts, converting across currencies when needed
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransferRequest true "Transfer details"
// @Success     201 {object} models.Transfer "Transfer created"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or exchange rate not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransferRequest
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

	transfer, err := h.transferService.CreateTransfer(
		userID,
		req.FromAccountID,
		req.ToAccountID,
		req.Amount,
		date,
		req.Description,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transfer": transfer})
}

// ListTransfers handles the retrieval of transfers for a user
// @Summary     List transfers
// @Description Get a paginated list of the user's transfers, newest first
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page  query int false "Page number (default 1)"
// @Param       limit query int false "Items per page (default 50, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transfer] "Paginated transfers"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transfers [get]
func (h *TransferHandler) ListTransfers(c *gin.Context) {
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

	result, err := h.transferService.ListTransfers(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransferByID handles the retrieval of a specific transfer
// @Summary     Get transfer by ID
// @Description Get a specific transfer by ID for the authenticated user
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transfer ID"
// @Success     200 {object} models.Transfer "Transfer details"
// @Failure     400 {object} ErrorResponse "Invalid transfer ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transfers/{id} [get]
func (h *TransferHandler) GetTransferByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.transferService.GetTransferByID(userID, transferID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": transfer})
}
