package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/angrymail/services/claims"
)

const claimSubmittedMessage = "Claim submitted successfully. Awaiting verification."

type ClaimHandler struct {
	claims *claims.Service
}

func NewClaimHandler(service *claims.Service) *ClaimHandler {
	return &ClaimHandler{claims: service}
}

type SubmitClaimRequest struct {
	ClaimURL         string `json:"claim_url"`
	VerificationCode string `json:"verification_code"`
}

type SubmitClaimResponse struct {
	Success bool   `json:"success"`
	ClaimID uint   `json:"claim_id"`
	Message string `json:"message"`
}

type UpdateClaimRequest struct {
	Status  string `json:"status"`
	Version *uint  `json:"version,omitempty"`
}

type UpdateClaimResponse struct {
	Success bool          `json:"success"`
	Claim   *claims.Claim `json:"claim"`
}

type NotifyClaimRequest struct {
	Email string `json:"email"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func (h *ClaimHandler) Submit(c echo.Context) error {
	var req SubmitClaimRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	claim, err := h.claims.SubmitClaim(c.Request().Context(), claims.SubmitInput{
		ClaimURL:         req.ClaimURL,
		VerificationCode: req.VerificationCode,
		IPAddress:        c.RealIP(),
		UserAgent:        c.Request().UserAgent(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, SubmitClaimResponse{
		Success: true,
		ClaimID: claim.ID,
		Message: claimSubmittedMessage,
	})
}

func (h *ClaimHandler) Status(c echo.Context) error {
	id, ok := claimID(c)
	if !ok {
		return claims.ErrClaimNotFound
	}

	claim, err := h.claims.GetClaimStatus(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, claim)
}

func (h *ClaimHandler) List(c echo.Context) error {
	page, limit := pageParams(c)

	result, err := h.claims.ListClaims(c.Request().Context(), c.QueryParam("status"), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *ClaimHandler) UpdateStatus(c echo.Context) error {
	id, ok := claimID(c)
	if !ok {
		return claims.ErrClaimNotFound
	}

	var req UpdateClaimRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	claim, err := h.claims.SetClaimStatus(c.Request().Context(), id, claims.Status(req.Status), req.Version)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UpdateClaimResponse{Success: true, Claim: claim})
}

func (h *ClaimHandler) Notify(c echo.Context) error {
	id, ok := claimID(c)
	if !ok {
		return claims.ErrClaimNotFound
	}

	var req NotifyClaimRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	sent, err := h.claims.SendVerificationNotice(c.Request().Context(), id, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: sent})
}

func claimID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
