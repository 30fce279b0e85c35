package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/warrenhq/warren/internal/forum"
)

// policyErrors are the expected rejections. They go out as a normal 200
// with a negative code so old clients keep parsing the envelope; anything
// else is a real failure and becomes a 500.
var policyErrors = []error{
	forum.ErrNotFound,
	forum.ErrIsDeleted,
	forum.ErrIsReported,
	forum.ErrNotAllowed,
	forum.ErrYouAreTmp,
	forum.ErrTitleUsed,
	forum.ErrNoReason,
	forum.ErrNoPoll,
	forum.ErrAlreadyVoted,
	forum.ErrUnknownOption,
	forum.ErrInvalidRequest,
}

func isPolicyError(err error) bool {
	for _, pe := range policyErrors {
		if errors.Is(err, pe) {
			return true
		}
	}
	return false
}

// fail writes the error envelope for a handler error.
func (r *Router) fail(c *gin.Context, err error) {
	if isPolicyError(err) {
		c.JSON(http.StatusOK, gin.H{"code": -1, "msg": err.Error()})
		return
	}
	r.logger.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"code": -1, "msg": "internal error"})
}
