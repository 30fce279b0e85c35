package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/warrenhq/warren/internal/forum"
)

type attentionForm struct {
	PID    int64 `form:"pid" binding:"required"`
	Switch *int  `form:"switch" binding:"required,min=0,max=1"`
}

func (r *Router) setAttention(c *gin.Context) {
	a := actor(c)
	if a.IsTmp {
		r.fail(c, forum.ErrNotAllowed)
		return
	}
	var in attentionForm
	if err := c.ShouldBind(&in); err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}

	attend := *in.Switch == 1
	p, err := r.service.SetAttention(c.Request.Context(), a, in.PID, attend)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":         0,
		"attention":    attend,
		"n_attentions": p.NAttentions,
	})
}

func (r *Router) getAttention(c *gin.Context) {
	a := actor(c)
	if a.IsTmp {
		r.fail(c, forum.ErrYouAreTmp)
		return
	}

	ps, err := r.service.GetAttentionPosts(c.Request.Context(), a.Viewer)
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
