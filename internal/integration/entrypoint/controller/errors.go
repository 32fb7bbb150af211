package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/integration/entrypoint/dto"
)

// respondError writes the HTTP answer for err. Coded domain errors keep
// their code; anything else is logged and reported as an internal error.
func respondError(ctx *gin.Context, err error) {
	var (
		valErr   *domainerror.ValidationError
		storeErr *domainerror.StoreError
		progErr  *domainerror.ProgressionError
		goalErr  *domainerror.GoalError
		impErr   *domainerror.ImportError
		syncErr  *domainerror.SyncError
		authErr  *domainerror.AuthError
	)

	switch {
	case errors.As(err, &valErr):
		ctx.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:  valErr.Error(),
			Code:   domainerror.ErrCodeValidation,
			Fields: valErr.Fields,
		})
	case errors.As(err, &storeErr):
		status := storeStatus(storeErr.Code)
		if status == http.StatusInternalServerError {
			slog.Error("store failure", "path", ctx.FullPath(), "error", err)
		}
		ctx.JSON(status, dto.ErrorResponse{Error: storeErr.Message, Code: string(storeErr.Code)})
	case errors.As(err, &progErr):
		ctx.JSON(progressionStatus(progErr.Code), dto.ErrorResponse{Error: progErr.Message, Code: string(progErr.Code)})
	case errors.As(err, &goalErr):
		status := http.StatusConflict
		if goalErr.Code == domainerror.ErrCodeMilestoneNotFound {
			status = http.StatusNotFound
		}
		ctx.JSON(status, dto.ErrorResponse{Error: goalErr.Message, Code: string(goalErr.Code)})
	case errors.As(err, &impErr):
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: impErr.Message, Code: string(impErr.Code)})
	case errors.As(err, &syncErr):
		status := syncStatus(syncErr.Code)
		if status >= http.StatusInternalServerError {
			slog.Warn("sync failure", "path", ctx.FullPath(), "error", err)
		}
		ctx.JSON(status, dto.ErrorResponse{Error: syncErr.Message, Code: string(syncErr.Code)})
	case errors.As(err, &authErr):
		ctx.JSON(authStatus(authErr.Code), dto.ErrorResponse{Error: authErr.Message, Code: string(authErr.Code)})
	default:
		slog.Error("request failed", "path", ctx.FullPath(), "error", err)
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "An internal error occurred",
		})
	}
}

// respondBadBody answers a request whose body could not be decoded.
func respondBadBody(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "Invalid request body",
		Code:    domainerror.ErrCodeValidation,
		Details: err.Error(),
	})
}

func storeStatus(code domainerror.StoreErrorCode) int {
	switch code {
	case domainerror.ErrCodeRecordNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeQuotaExceeded:
		return http.StatusInsufficientStorage
	case domainerror.ErrCodeStoreClosed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func progressionStatus(code domainerror.ProgressionErrorCode) int {
	switch code {
	case domainerror.ErrCodeInvalidAmount, domainerror.ErrCodeFutureDate:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusConflict
	}
}

func syncStatus(code domainerror.SyncErrorCode) int {
	switch code {
	case domainerror.ErrCodeSyncOffline, domainerror.ErrCodeSyncDisabled:
		return http.StatusServiceUnavailable
	case domainerror.ErrCodeSyncUnauthorized:
		return http.StatusUnauthorized
	case domainerror.ErrCodeSyncRemote:
		return http.StatusBadGateway
	case domainerror.ErrCodeConflictNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// authStatus maps auth error codes to HTTP status codes.
func authStatus(code domainerror.AuthErrorCode) int {
	switch code {
	case domainerror.ErrCodeEmailExists:
		return http.StatusConflict
	case domainerror.ErrCodeWeakPassword,
		domainerror.ErrCodeInvalidEmail,
		domainerror.ErrCodeMissingFields:
		return http.StatusBadRequest
	case domainerror.ErrCodeInvalidCredentials,
		domainerror.ErrCodeUserNotFound,
		domainerror.ErrCodeInvalidToken,
		domainerror.ErrCodeExpiredToken,
		domainerror.ErrCodeMissingToken:
		return http.StatusUnauthorized
	case domainerror.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
