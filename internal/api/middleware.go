package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warrenhq/warren/internal/forum"
	"github.com/warrenhq/warren/internal/hasher"
	"github.com/warrenhq/warren/internal/relations"
)

const actorKey = "warren-actor"

// RequestID tags every request so log lines of one request can be joined.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// AccessLog writes one structured line per request.
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Auth resolves the User-Token header into an Actor. Two token forms are
// accepted: "<tmpToken>_<name>" names an anonymous session valid for the
// current rotation window, anything else is looked up as a registered
// user's token. Banned fingerprints get a 403 either way.
func (r *Router) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("User-Token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": -1, "msg": "missing token"})
			return
		}

		actor, err := r.resolveActor(c, token)
		if err != nil {
			r.fail(c, err)
			c.Abort()
			return
		}
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": -1, "msg": "invalid token"})
			return
		}

		banned, err := relations.IsBanned(c.Request.Context(), r.service.Cache().Client(), actor.NameHash)
		if err != nil {
			r.fail(c, err)
			c.Abort()
			return
		}
		if banned {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": -1, "msg": "banned"})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func (r *Router) resolveActor(c *gin.Context, token string) (*forum.Actor, error) {
	ctx := c.Request.Context()

	if sp := strings.SplitN(token, "_", 2); len(sp) == 2 && sp[0] == r.hasher.TmpToken() {
		return r.actorFromHash(c, r.hasher.HashWithSalt(sp[1]), nil, false)
	}

	u, err := r.service.UserByToken(ctx, token)
	if err != nil || u == nil {
		return nil, err
	}
	return r.actorFromHash(c, r.hasher.HashWithSalt(u.Name), &u.ID, u.IsAdmin)
}

func (r *Router) actorFromHash(c *gin.Context, namehash string, userID *int64, isAdmin bool) (*forum.Actor, error) {
	ctx := c.Request.Context()
	rdb := r.service.Cache().Client()

	title, err := relations.GetCustomTitle(ctx, rdb, namehash)
	if err != nil {
		return nil, err
	}
	rank, err := relations.GetAutoBlockRank(ctx, rdb, namehash)
	if err != nil {
		return nil, err
	}
	return &forum.Actor{
		Viewer: &relations.Viewer{
			NameHash:      namehash,
			UserID:        userID,
			IsAdmin:       isAdmin,
			AutoBlockRank: rank,
		},
		IsTmp: userID == nil,
		Title: title,
	}, nil
}

// actor pulls the authenticated Actor set by Auth.
func actor(c *gin.Context) *forum.Actor {
	return c.MustGet(actorKey).(*forum.Actor)
}

// lookSalt is the abbreviated salt shown on the status page, enough to
// tell two deployments apart without leaking the salt itself.
func (r *Router) lookSalt() string {
	return hasher.Look(r.hasher.Salt)
}
