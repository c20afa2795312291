package httpapi

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/gridduel/gridduel/internal/platform/errors"
	"github.com/gridduel/gridduel/internal/storage"
)

// respondErr writes the failure envelope. Version conflicts additionally
// carry the authoritative version so the client can re-read and retry.
func respondErr(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	body := gin.H{
		"success":   false,
		"error":     err.Error(),
		"errorCode": string(code),
	}
	var conflict *storage.VersionConflictError
	if errors.As(err, &conflict) {
		body["version"] = conflict.Version
	}
	c.JSON(code.HTTPStatus(), body)
}
