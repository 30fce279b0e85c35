package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/warrenhq/warren/internal/forum"
	"github.com/warrenhq/warren/internal/relations"
)

func (r *Router) getComment(c *gin.Context) {
	a := actor(c)
	pid, err := strconv.ParseInt(c.Query("pid"), 10, 64)
	if err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()
	p, err := r.service.GetPost(ctx, pid)
	if err != nil {
		r.fail(c, err)
		return
	}
	if p.IsDeleted && !a.IsAdmin {
		r.fail(c, forum.ErrIsDeleted)
		return
	}

	cs, err := r.service.GetComments(ctx, p)
	if err != nil {
		r.fail(c, err)
		return
	}

	hashes := make([]string, 0, len(cs)+1)
	hashes = append(hashes, p.AuthorHash)
	for i := range cs {
		hashes = append(hashes, cs[i].AuthorHash)
	}
	blockDict, err := r.service.BlockDict(ctx, a.Viewer, p.ID, hashes)
	if err != nil {
		r.fail(c, err)
		return
	}

	attending, err := relations.NewAttention(a.NameHash, r.service.Cache().Client()).Has(ctx, pid)
	if err != nil {
		r.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":         0,
		"data":         commentsToOutput(a, p, cs, blockDict),
		"n_attentions": p.NAttentions,
		"attention":    attending,
	})
}

type commentForm struct {
	PID      int64  `form:"pid" binding:"required"`
	Text     string `form:"text" binding:"required,max=12288"`
	UseTitle bool   `form:"use_title"`
}

func (r *Router) doComment(c *gin.Context) {
	a := actor(c)
	var in commentForm
	if err := c.ShouldBind(&in); err != nil {
		r.fail(c, forum.ErrInvalidRequest)
		return
	}

	cm, err := r.service.AddComment(c.Request.Context(), a, in.PID, in.Text, in.UseTitle || a.IsAdmin)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"cid": cm.ID}})
}
