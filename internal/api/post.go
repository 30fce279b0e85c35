package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/warrenhq/warren/internal/forum"
)

const pageSize = 25

func (r *Router) getOne(c *gin.Context) {
	a := actor(c)
	pid, err := strconv.ParseInt(c.Query("pid"), 10, 64)
	if err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}

	p, err := r.service.GetPost(c.Request.Context(), pid)
	if err != nil {
		r.fail(c, err)
		return
	}
	if !a.IsAdmin {
		if p.IsDeleted {
			r.fail(c, forum.ErrIsDeleted)
			return
		}
		if p.IsReported {
			r.fail(c, forum.ErrIsReported)
			return
		}
	}

	out, err := r.postToOutput(c.Request.Context(), a, p)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": out})
}

func (r *Router) getList(c *gin.Context) {
	a := actor(c)
	if a.IsTmp {
		r.fail(c, forum.ErrYouAreTmp)
		return
	}

	mode, err := strconv.Atoi(c.DefaultQuery("order_mode", "0"))
	if err != nil || mode < 0 || mode > 4 {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}
	page, _ := strconv.ParseInt(c.DefaultQuery("p", "1"), 10, 64)
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

	ps, err := r.service.GetRankedPage(c.Request.Context(), a.Viewer, room, mode, (page-1)*pageSize, pageSize)
	if err != nil {
		r.fail(c, err)
		return
	}
	outs, err := r.postsToOutput(c.Request.Context(), a, ps)
	if err != nil {
		r.fail(c, err)
		return
	}

	count, err := r.service.UserCount(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":            0,
		"data":            outs,
		"count":           len(outs),
		"custom_title":    a.Title,
		"is_admin":        a.IsAdmin,
		"auto_block_rank": a.AutoBlockRank,
		"n_users":         count,
	})
}

func (r *Router) getMulti(c *gin.Context) {
	a := actor(c)
	if a.IsTmp {
		r.fail(c, forum.ErrYouAreTmp)
		return
	}

	var pids []int64
	for _, raw := range c.QueryArray("pids") {
		for _, part := range strings.Split(raw, ",") {
			if part == "" {
				continue
			}
			pid, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				r.fail(c, forum.ErrInvalidRequest)
				return
			}
			pids = append(pids, pid)
		}
	}

	ps, err := r.service.GetPosts(c.Request.Context(), pids)
	if err != nil {
		r.fail(c, err)
		return
	}
	outs, err := r.postsToOutput(c.Request.Context(), a, ps)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": outs})
}

type postForm struct {
	Text        string   `form:"text" binding:"required,max=12288"`
	CW          string   `form:"cw" binding:"max=96"`
	AllowSearch bool     `form:"allow_search"`
	UseTitle    bool     `form:"use_title"`
	RoomID      int64    `form:"room_id"`
	PollOptions []string `form:"poll_options"`
}

func (r *Router) doPost(c *gin.Context) {
	a := actor(c)
	var in postForm
	if err := c.ShouldBind(&in); err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}

	p, err := r.service.PublishPost(c.Request.Context(), a, forum.PublishInput{
		Content:     in.Text,
		CW:          in.CW,
		AllowSearch: in.AllowSearch,
		UseTitle:    in.UseTitle || a.IsAdmin,
		RoomID:      in.RoomID,
		PollOptions: in.PollOptions,
	})
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"pid": p.ID}})
}

type cwForm struct {
	PID int64  `form:"pid" binding:"required"`
	CW  string `form:"cw" binding:"max=96"`
}

func (r *Router) editCW(c *gin.Context) {
	a := actor(c)
	var in cwForm
	if err := c.ShouldBind(&in); err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}
	if err := r.service.EditCW(c.Request.Context(), a, in.PID, in.CW); err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0})
}
