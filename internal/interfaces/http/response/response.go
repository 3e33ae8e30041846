package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "nft-marketplace.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response
func Error(c *gin.Context, err error) {
	appErr := toAppError(err)
	c.JSON(appErr.Status, body(appErr))
}

// Abort sends an error response and stops the handler chain
func Abort(c *gin.Context, err error) {
	appErr := toAppError(err)
	c.AbortWithStatusJSON(appErr.Status, body(appErr))
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}

func body(appErr *domainerrors.AppError) gin.H {
	return gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	}
}

// toAppError maps bare sentinel errors to their HTTP form. Anything else is a 500.
func toAppError(err error) *domainerrors.AppError {
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, domainerrors.ErrNotFound):
		return domainerrors.NotFound(err.Error())
	case errors.Is(err, domainerrors.ErrInvalidInput), errors.Is(err, domainerrors.ErrBadRequest):
		return domainerrors.BadRequest(err.Error())
	case errors.Is(err, domainerrors.ErrUnauthorized):
		return domainerrors.Unauthorized(err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyExists):
		return domainerrors.Conflict(err.Error())
	case errors.Is(err, domainerrors.ErrNotConnected):
		return domainerrors.NewAppError(http.StatusServiceUnavailable, domainerrors.CodeNotConnected, err.Error(), err)
	}
	return domainerrors.InternalError(err)
}
