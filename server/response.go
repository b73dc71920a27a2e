package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/lifemap/memorymap/errors"
)

// RespondWithError renders err as the error envelope. AppErrors keep their
// status; an oversized body is 413; anything else is a 500.
func RespondWithError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

func toAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.PayloadTooLarge(tooLarge.Limit)
	}
	return apperrors.Internal(err)
}

// RespondJSON sends v with status.
func RespondJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

// RespondOK sends a 200 with v.
func RespondOK(c *gin.Context, v any) {
	c.JSON(http.StatusOK, v)
}

// RespondCreated sends a 201 with v.
func RespondCreated(c *gin.Context, v any) {
	c.JSON(http.StatusCreated, v)
}

// RespondAccepted sends a 202 with v.
func RespondAccepted(c *gin.Context, v any) {
	c.JSON(http.StatusAccepted, v)
}

// RespondNoContent sends a 204.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func notFoundRoute(path string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeNotFound, "No route for "+path, http.StatusNotFound)
}

func methodNotAllowed(method string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeInvalidInput, "Method "+method+" not allowed", http.StatusMethodNotAllowed)
}
