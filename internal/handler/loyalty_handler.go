package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urbanloom/loyalty-backend/internal/model"
	"github.com/urbanloom/loyalty-backend/internal/service"
)

type LoyaltyHandler struct {
	svc service.LoyaltyService
}

func NewLoyaltyHandler(svc service.LoyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{svc: svc}
}

type ProfileResponse struct {
	CustomerUID      string `json:"customerUid"`
	PointsBalance    int64  `json:"pointsBalance"`
	LifetimePoints   int64  `json:"lifetimePoints"`
	Tier             string `json:"tier"`
	RedeemableRupees int64  `json:"redeemableRupees"`
}

type TransactionResponse struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

type RedemptionResponse struct {
	ID             string `json:"id"`
	Points         int64  `json:"points"`
	Status         string `json:"status"`
	DiscountRupees int64  `json:"discountRupees"`
	RejectReason   string `json:"rejectReason,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

type RedeemResponse struct {
	Committed      bool   `json:"committed"`
	NewBalance     int64  `json:"newBalance"`
	DiscountRupees int64  `json:"discountRupees"`
	RedemptionID   string `json:"redemptionId"`
	ErrorCode      string `json:"errorCode,omitempty"`
}

func toProfileResponse(p *service.Profile) ProfileResponse {
	return ProfileResponse{
		CustomerUID:      p.CustomerUID,
		PointsBalance:    p.PointsBalance,
		LifetimePoints:   p.LifetimePoints,
		Tier:             string(p.Tier),
		RedeemableRupees: p.RedeemableRupees,
	}
}

func toTransactionResponse(t *model.LoyaltyTransaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		Amount:      t.Amount,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

func toRedemptionResponse(r *model.Redemption) RedemptionResponse {
	return RedemptionResponse{
		ID:             r.ID,
		Points:         r.Points,
		Status:         string(r.Status),
		DiscountRupees: r.DiscountRupees,
		RejectReason:   r.RejectReason,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      r.UpdatedAt.Format(time.RFC3339),
	}
}

// GetMe returns the caller's profile plus the discount their balance is
// currently worth.
func (h *LoyaltyHandler) GetMe(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse(CodeUnauthorized, "missing uid"))
	}
	p, err := h.svc.GetProfile(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse(CodeRewardsUnavailable, "rewards temporarily unavailable"))
	}
	return c.JSON(http.StatusOK, toProfileResponse(p))
}

func (h *LoyaltyHandler) History(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse(CodeUnauthorized, "missing uid"))
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, err := h.svc.History(c.Request().Context(), uid, limit)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse(CodeRewardsUnavailable, "rewards temporarily unavailable"))
	}
	resp := make([]TransactionResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toTransactionResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

type redeemRequest struct {
	Points int64 `json:"points"`
}

func (h *LoyaltyHandler) Redeem(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse(CodeUnauthorized, "missing uid"))
	}
	var req redeemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(CodeBadRequest, "invalid json"))
	}
	res, err := h.svc.Redeem(c.Request().Context(), uid, req.Points)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, NewErrorResponse(CodeValidation, "points must be a positive redeemable amount"))
		case errors.Is(err, service.ErrInsufficientPoints):
			// Not committed, but the checkout can proceed without the
			// discount, so this is a structured result, not a bare error.
			return c.JSON(http.StatusConflict, RedeemResponse{
				Committed:    false,
				NewBalance:   res.NewBalance,
				RedemptionID: res.Redemption.ID,
				ErrorCode:    CodeInsufficientPoints,
			})
		case errors.Is(err, service.ErrConcurrentModification):
			return c.JSON(http.StatusConflict, NewErrorResponse(CodeConflict, "redemption settled concurrently"))
		default:
			return c.JSON(http.StatusServiceUnavailable, NewErrorResponse(CodeRewardsUnavailable, "rewards temporarily unavailable"))
		}
	}
	return c.JSON(http.StatusOK, RedeemResponse{
		Committed:      res.Committed,
		NewBalance:     res.NewBalance,
		DiscountRupees: res.DiscountRupees,
		RedemptionID:   res.Redemption.ID,
	})
}

func (h *LoyaltyHandler) ListRedemptions(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse(CodeUnauthorized, "missing uid"))
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, err := h.svc.Redemptions(c.Request().Context(), uid, limit)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse(CodeRewardsUnavailable, "rewards temporarily unavailable"))
	}
	resp := make([]RedemptionResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toRedemptionResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

type earnRequest struct {
	CustomerUID string `json:"customerUid"`
	Points      int64  `json:"points"`
	Description string `json:"description"`
}

// Earn is the order-completion hook: the checkout flow awards points after a
// paid order. Guarded by the service token, not end-user auth.
func (h *LoyaltyHandler) Earn(c echo.Context) error {
	var req earnRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse(CodeBadRequest, "invalid json"))
	}
	txn, err := h.svc.Earn(c.Request().Context(), req.CustomerUID, req.Points, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.JSON(http.StatusBadRequest, NewErrorResponse(CodeValidation, "customerUid and a positive points amount are required"))
		}
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse(CodeRewardsUnavailable, "rewards temporarily unavailable"))
	}
	return c.JSON(http.StatusCreated, toTransactionResponse(txn))
}
