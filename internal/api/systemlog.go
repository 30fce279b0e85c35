package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const systemlogPageSize = 100

// systemlog serves the public moderation log plus the session facts a
// client needs: the current anonymous-token prefix and the abbreviated
// salt, which tells clients when fingerprints have rotated.
func (r *Router) systemlog(c *gin.Context) {
	a := actor(c)
	logs, err := r.service.ListSystemlog(c.Request.Context(), systemlogPageSize)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":         0,
		"data":         logs,
		"tmp_token":    r.hasher.TmpToken(),
		"salt":         r.lookSalt(),
		"start_time":   r.hasher.StartTime.Unix(),
		"custom_title": a.Title,
	})
}
