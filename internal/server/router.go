package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/auth"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/config"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/mail"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/metrics"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/mw"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/service"
	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/ws"
)

// SetupRouter wires middleware, the REST API and the websocket endpoint.
func SetupRouter(cfg config.Config, db *gorm.DB, hub *ws.Hub, mailer mail.Mailer) *gin.Engine {
	h := NewHandler(
		service.NewUserService(db, cfg, mailer),
		service.NewCharacterService(db),
		service.NewCommentService(db),
		service.NewBattleService(db),
		service.NewConversationService(db),
		hub,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	api.POST("/auth/register", h.RegisterUser)
	api.POST("/auth/login", h.Login)
	api.GET("/auth/verify-email/:token", h.VerifyEmail)
	api.POST("/auth/resend-verification", h.ResendVerification)

	api.GET("/characters", h.ListCharacters)
	api.GET("/characters/:id", h.GetCharacter)
	api.GET("/characters/creator/:creatorId", h.CharactersByCreator)

	api.GET("/comments/character/:characterId", h.ListComments)

	api.GET("/battles", h.ListBattles)
	api.GET("/battles/:id", h.GetBattle)

	api.GET("/users/profile/:id", h.GetProfile)
	api.GET("/users/search", h.SearchUsers)

	authed := api.Group("")
	authed.Use(auth.Middleware(cfg, db))

	authed.GET("/auth/me", h.Me)
	authed.GET("/users/me", h.Me)
	authed.PUT("/users/me", h.UpdateMe)

	authed.POST("/characters", h.CreateCharacter)
	authed.PUT("/characters/:id", h.UpdateCharacter)
	authed.DELETE("/characters/:id", h.DeleteCharacter)
	authed.POST("/characters/:id/like", h.ToggleCharacterLike)

	authed.POST("/comments", h.CreateComment)
	authed.PUT("/comments/:id", h.UpdateComment)
	authed.DELETE("/comments/:id", h.DeleteComment)
	authed.POST("/comments/:id/like", h.LikeComment)

	authed.POST("/battles", h.CreateBattle)
	authed.DELETE("/battles/:id", h.DeleteBattle)
	authed.POST("/battles/:id/vote", h.VoteBattle)
	authed.GET("/battles/:id/my-vote", h.MyVote)

	authed.GET("/conversations", h.ListConversations)
	authed.POST("/conversations", h.OpenConversation)
	authed.GET("/conversations/unread-count", h.UnreadCount)
	authed.GET("/conversations/:id", h.GetConversation)
	authed.DELETE("/conversations/:id", h.DeleteConversation)
	authed.GET("/conversations/:id/messages", h.ListMessages)
	authed.POST("/conversations/:id/messages", h.SendMessage)
	authed.PUT("/conversations/:id/read", h.MarkConversationRead)

	r.GET("/ws", ws.Serve(hub, db, cfg))

	serveStatic(r, "./web")
	return r
}

// serveStatic mounts a built frontend if one is present, falling back to
// index.html for client-side routes.
func serveStatic(r *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return
	}
	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || path == "/metrics" || path == "/healthz" || path == "/ws" {
			c.Status(http.StatusNotFound)
			return
		}
		rel := strings.TrimPrefix(filepath.Clean(path), "/")
		target := filepath.Join(dir, rel)
		if fi, err := os.Stat(target); err == nil && !fi.IsDir() {
			c.File(target)
			return
		}
		if strings.Contains(rel, ".") {
			c.Status(http.StatusNotFound)
			return
		}
		c.File(index)
	})
}
