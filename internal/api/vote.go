package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/warrenhq/warren/internal/forum"
)

type voteForm struct {
	PID    int64 `form:"pid" binding:"required"`
	Option *int  `form:"option" binding:"required,min=0"`
}

func (r *Router) vote(c *gin.Context) {
	a := actor(c)
	var in voteForm
	if err := c.ShouldBind(&in); err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}

	st, err := r.service.VotePoll(c.Request.Context(), a, in.PID, *in.Option)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": st})
}

type reactionForm struct {
	Status *int `form:"status" binding:"required,min=-1,max=1"`
}

func (r *Router) reaction(c *gin.Context) {
	a := actor(c)
	if a.IsTmp {
		r.fail(c, forum.ErrYouAreTmp)
		return
	}
	pid, err := strconv.ParseInt(c.Param("pid"), 10, 64)
	if err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}
	var in reactionForm
	if err := c.ShouldBind(&in); err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}

	p, err := r.service.React(c.Request.Context(), a, pid, *in.Status)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": gin.H{
			"up_votes":        p.UpVotes,
			"down_votes":      p.DownVotes,
			"reaction_status": *in.Status,
		},
	})
}
