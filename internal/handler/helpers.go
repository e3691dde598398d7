package handler

import (
	"errors"
	"fmt"
	"net/http"

	repo "laptophub/internal/repository"
	"laptophub/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// usecaseの型付きエラーをHTTPステータスへ変換する。
// ここ以外ではエラーの整形をしない。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	var insufficient *usecase.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error: fmt.Sprintf("insufficient stock for product %d", insufficient.ProductID),
		})
	}

	var transition *usecase.InvalidTransitionError
	if errors.As(err, &transition) {
		return c.JSON(http.StatusConflict, ErrorResponse{Error: transition.Error()})
	}

	switch {
	case errors.Is(err, repo.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, usecase.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	case errors.Is(err, usecase.ErrEmptyCart):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cart empty"})
	case errors.Is(err, usecase.ErrInvalidQuantity):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid quantity"})
	case errors.Is(err, usecase.ErrProductUnavailable):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "product unavailable"})
	case errors.Is(err, usecase.ErrInvalidAddress):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid shipping address"})
	case errors.Is(err, usecase.ErrInvalidIdempotencyKey):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid idempotency key"})
	case errors.Is(err, usecase.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid input"})
	case errors.Is(err, usecase.ErrIdempotencyConflict):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency conflict"})
	case errors.Is(err, repo.ErrConcurrencyConflict):
		//部分コミットは無いのでそのままリトライしてよい
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "concurrency conflict, retry"})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

//middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get("user_id")
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

func isAdminFromContext(c echo.Context) bool {
	role, ok := c.Get("user_role").(string)
	return ok && role == "ADMIN"
}
