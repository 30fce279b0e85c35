// Package api is the thin HTTP glue over the forum core. Handlers parse,
// delegate and shape output; every rule lives in internal/forum.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/warrenhq/warren/internal/forum"
	"github.com/warrenhq/warren/internal/hasher"
	"github.com/warrenhq/warren/pkg/logging"
)

// Router wires the HTTP surface to the forum service.
type Router struct {
	service *forum.Service
	hasher  *hasher.RandomHasher
	logger  *zap.Logger
}

// NewRouter creates the API router.
func NewRouter(service *forum.Service, h *hasher.RandomHasher) *Router {
	return &Router{
		service: service,
		hasher:  h,
		logger:  logging.WithComponent("api"),
	}
}

// SetupRoutes registers every route on the engine. All forum routes sit
// under /_api/v1 behind token auth; health stays open.
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)

	v1 := engine.Group("/_api/v1", r.Auth())
	{
		v1.GET("/getone", r.getOne)
		v1.GET("/getlist", r.getList)
		v1.GET("/getmulti", r.getMulti)
		v1.POST("/dopost", r.doPost)
		v1.POST("/editcw", r.editCW)

		v1.GET("/getcomment", r.getComment)
		v1.POST("/docomment", r.doComment)

		v1.POST("/attention", r.setAttention)
		v1.GET("/getattention", r.getAttention)

		v1.GET("/search", r.search)

		v1.POST("/delete", r.deleteContent)
		v1.POST("/report", r.report)
		v1.POST("/title", r.setTitle)
		v1.POST("/block", r.block)

		v1.POST("/vote", r.vote)
		v1.POST("/post/:pid/reaction", r.reaction)

		v1.GET("/systemlog", r.systemlog)
	}
}

func (r *Router) healthHandler(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "OK",
		"service": "warren-api",
	})
}
