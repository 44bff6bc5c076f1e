package handlers

import (
	"github.com/keeperpay/keeperpay/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CreateKeeperAccountRequest is the keeper onboarding request body.
type CreateKeeperAccountRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CreateKeeperAccount creates a connected account and returns the onboarding link.
func (h *Handler) CreateKeeperAccount(c *gin.Context) {
	var req CreateKeeperAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	onboarding, err := h.PaymentService.CreateKeeperAccount(c.Request.Context(), req.Email)
	if err != nil {
		respondWithMappedError(c, err, keeperAccountErrorRules, response.CodeInternal, "keeper account create failed")
		return
	}
	response.Success(c, onboarding)
}

// CreateKeeperAccountLink creates a fresh onboarding link for an account.
func (h *Handler) CreateKeeperAccountLink(c *gin.Context) {
	link, err := h.PaymentService.CreateKeeperAccountLink(c.Request.Context(), c.Param("accountId"))
	if err != nil {
		respondWithMappedError(c, err, keeperAccountErrorRules, response.CodeInternal, "keeper account link failed")
		return
	}
	response.Success(c, gin.H{
		"url":        link.URL,
		"expires_at": link.ExpiresAt,
	})
}

// GetKeeperAccount returns a connected account.
func (h *Handler) GetKeeperAccount(c *gin.Context) {
	account, err := h.PaymentService.GetKeeperAccount(c.Request.Context(), c.Param("accountId"))
	if err != nil {
		respondWithMappedError(c, err, keeperAccountErrorRules, response.CodeInternal, "keeper account fetch failed")
		return
	}
	response.Success(c, account)
}

// FindKeeperAccountByEmail looks a connected account up by email.
func (h *Handler) FindKeeperAccountByEmail(c *gin.Context) {
	account, err := h.PaymentService.FindKeeperAccountByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondWithMappedError(c, err, keeperAccountErrorRules, response.CodeInternal, "keeper account fetch failed")
		return
	}
	if account == nil {
		response.Success(c, nil)
		return
	}
	response.Success(c, account)
}

// CheckKeeperAccountStatus reports onboarding completeness for an account.
func (h *Handler) CheckKeeperAccountStatus(c *gin.Context) {
	status, err := h.PaymentService.CheckKeeperAccountStatus(c.Request.Context(), c.Param("accountId"))
	if err != nil {
		respondWithMappedError(c, err, keeperAccountErrorRules, response.CodeInternal, "keeper account status failed")
		return
	}
	response.Success(c, status)
}
