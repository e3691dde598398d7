package handler

import (
	"net/http"
	"strconv"

	"laptophub/internal/domain/model"
	"laptophub/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// 認証必須グループに付ける
func (h *PaymentHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/payments/:id", h.get)
	g.POST("/payments/:id/simulate", h.simulate)
}

// 管理側
func (h *PaymentHandler) RegisterAdminRoutes(g *echo.Group) {
	g.PUT("/payments/:id/status", h.adminUpdateStatus)
	g.PUT("/payments/:id/external-ref", h.adminSetExternalRef)
	g.GET("/payments/external/:ref", h.adminGetByExternalRef)
}

func (h *PaymentHandler) get(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Get(c.Request().Context(), userID, paymentID, isAdminFromContext(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type simulateRequest struct {
	Success bool `json:"success"`
}

// 外部決済プロセッサの結果通知の代わり。
func (h *PaymentHandler) simulate(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req simulateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.ProcessSimulated(c.Request().Context(), userID, paymentID, req.Success, isAdminFromContext(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type updatePaymentStatusRequest struct {
	Status string `json:"status"`
}

func (h *PaymentHandler) adminUpdateStatus(c echo.Context) error {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req updatePaymentStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), paymentID, model.PaymentStatus(req.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type setExternalRefRequest struct {
	ExternalRef string `json:"external_ref"`
}

func (h *PaymentHandler) adminSetExternalRef(c echo.Context) error {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req setExternalRefRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.SetExternalRef(c.Request().Context(), paymentID, req.ExternalRef)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) adminGetByExternalRef(c echo.Context) error {
	out, err := h.uc.GetByExternalRef(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
