package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/warrenhq/warren/internal/forum"
)

type deleteForm struct {
	IDType string `form:"type" binding:"required"`
	ID     int64  `form:"id" binding:"required"`
	Note   string `form:"note"`
}

func (r *Router) deleteContent(c *gin.Context) {
	a := actor(c)
	var in deleteForm
	if err := c.ShouldBind(&in); err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}

	var err error
	switch in.IDType {
	case "pid":
		err = r.service.DeletePost(c.Request.Context(), a, in.ID, in.Note)
	case "cid":
		err = r.service.DeleteComment(c.Request.Context(), a, in.ID, in.Note)
	default:
		err = forum.ErrNotAllowed
	}
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0})
}

type reportForm struct {
	PID    int64  `form:"pid" binding:"required"`
	Reason string `form:"reason"`
}

func (r *Router) report(c *gin.Context) {
	a := actor(c)
	if a.IsTmp {
		r.fail(c, forum.ErrNotAllowed)
		return
	}
	var in reportForm
	if err := c.ShouldBind(&in); err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}
	if err := r.service.Report(c.Request.Context(), a, in.PID, in.Reason); err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0})
}

type titleForm struct {
	Title string `form:"title" binding:"required,max=32"`
}

func (r *Router) setTitle(c *gin.Context) {
	a := actor(c)
	var in titleForm
	if err := c.ShouldBind(&in); err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}
	if err := r.service.SetTitle(c.Request.Context(), a, in.Title); err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0})
}

type blockForm struct {
	NameHash string `form:"namehash" binding:"required"`
}

func (r *Router) block(c *gin.Context) {
	a := actor(c)
	var in blockForm
	if err := c.ShouldBind(&in); err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}

	count, err := r.service.Block(c.Request.Context(), a, in.NameHash)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"curr": count}})
}
