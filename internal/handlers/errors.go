package handlers

import (
	"net/http"

	"github.com/getmentor/authflow/internal/models"
	"github.com/gin-gonic/gin"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError sends the {success:false, message} body the client reads its
// error text from, and attaches err for the request log.
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.JSON(status, models.ErrorResponse{Success: false, Message: message})
}

// respondValidationError is respondError with the per-field details attached.
// The message is the first field's so clients that only read message still show something useful.
func respondValidationError(c *gin.Context, details []ValidationError, err error) {
	attachError(c, err)
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": firstMessage(details),
		"details": details,
	})
}
