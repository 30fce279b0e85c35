package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/warrenhq/warren/internal/forum"
)

func (r *Router) search(c *gin.Context) {
	a := actor(c)
	if a.IsTmp {
		r.fail(c, forum.ErrYouAreTmp)
		return
	}

	mode, err := strconv.Atoi(c.DefaultQuery("search_mode", "0"))
	if err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if page < 1 {
		page = 1
	}
	var room *int64
	if rs := c.Query("room_id"); rs != "" {
		id, err := strconv.ParseInt(rs, 10, 64)
		if err != nil {
			r.fail(c, forum.ErrInvalidRequest)
			return
		}
		room = &id
	}

	keywords := strings.TrimSpace(c.Query("keywords"))
	var outs []*PostOutput
	if keywords != "" {
		ps, err := r.service.Search(c.Request.Context(), room, mode, keywords, (page-1)*pageSize, pageSize)
		if err != nil {
			r.fail(c, err)
			return
		}
		outs, err = r.postsToOutput(c.Request.Context(), a, ps)
		if err != nil {
			r.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": outs, "count": len(outs)})
}
