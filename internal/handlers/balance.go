package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fundraising-backend/internal/models"
	"fundraising-backend/internal/services"
	"fundraising-backend/internal/supabase"
)

// BalanceRefresher is implemented by services.BalanceRefreshService.
type BalanceRefresher interface {
	RefreshBalance(projectID, requesterID uuid.UUID) (*services.RefreshResult, error)
}

type BalanceHandler struct {
	refresher BalanceRefresher
	realtime  *supabase.RealtimeClient
}

func NewBalanceHandler(refresher BalanceRefresher, realtime *supabase.RealtimeClient) *BalanceHandler {
	return &BalanceHandler{
		refresher: refresher,
		realtime:  realtime,
	}
}

// RefreshBalance handles POST /projects/:project_id/refresh-balance.
// A cooldown hit is a 200 with refreshed=false and next_allowed_at set
// so the UI can show "next refresh available at" instead of an error
// banner.
func (h *BalanceHandler) RefreshBalance(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	projectID, ok := requireProjectID(c)
	if !ok {
		return
	}

	result, err := h.refresher.RefreshBalance(projectID, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	if result.Refreshed && h.realtime != nil {
		h.realtime.PublishProjectEvent(projectID, "balance_refreshed",
			supabase.BalanceRefreshedPayload(projectID, result.BalanceBTC.String()))
	}

	c.JSON(http.StatusOK, models.RefreshBalanceResponse{
		BalanceBTC:      result.BalanceBTC.String(),
		AmountRaised:    result.AmountRaised.StringFixed(2),
		GoalCurrency:    result.GoalCurrency,
		ProgressPercent: result.ProgressPercent.StringFixed(2),
		GoalAchieved:    result.GoalAchieved,
		Refreshed:       result.Refreshed,
		NextAllowedAt:   result.NextAllowedAt,
		RateStale:       result.RateStale,
	})
}
