package handlers

import (
	"fmt"

	"github.com/keeperpay/keeperpay/internal/http/response"

	"github.com/gin-gonic/gin"
)

// onboardingDeepLink builds the mobile deep link the app intercepts after a
// hosted onboarding redirect.
func onboardingDeepLink(outcome, accountID string) string {
	return fmt.Sprintf("keeperapp://onboarding/%s?account_id=%s", outcome, accountID)
}

// HandleOnboardingSuccess resolves the post-onboarding return redirect into a
// deep-link payload. The account may still be incomplete when the processor
// redirects back, so the live status decides the outcome.
func (h *Handler) HandleOnboardingSuccess(c *gin.Context) {
	accountID := c.Query("account_id")
	status, err := h.PaymentService.CheckKeeperAccountStatus(c.Request.Context(), accountID)
	if err != nil {
		requestLog(c).Warnw("keeper_onboarding_status_check_failed",
			"keeper_account_id", accountID,
			"error", err,
		)
		response.Success(c, gin.H{
			"status":    "error",
			"message":   "unable to verify the account status",
			"deepLink":  onboardingDeepLink("error", accountID),
			"accountId": accountID,
		})
		return
	}

	if !status.IsComplete {
		response.Success(c, gin.H{
			"status":        "incomplete",
			"message":       "onboarding is not complete yet",
			"deepLink":      onboardingDeepLink("refresh", accountID),
			"accountId":     accountID,
			"accountStatus": status,
		})
		return
	}

	response.Success(c, gin.H{
		"status":        "success",
		"message":       "onboarding completed",
		"deepLink":      onboardingDeepLink("success", accountID),
		"accountId":     accountID,
		"accountStatus": status,
	})
}

// HandleOnboardingRefresh answers the expired-link redirect with a deep link
// asking the app to restart onboarding.
func (h *Handler) HandleOnboardingRefresh(c *gin.Context) {
	accountID := c.Query("account_id")
	response.Success(c, gin.H{
		"status":    "refresh_needed",
		"message":   "onboarding must be completed",
		"deepLink":  onboardingDeepLink("refresh", accountID),
		"accountId": accountID,
	})
}
