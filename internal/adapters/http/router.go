package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clanrich/signal/internal/adapters/signal"
	"github.com/clanrich/signal/internal/app"
	"github.com/clanrich/signal/internal/config"
	"github.com/clanrich/signal/internal/domain"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware tags the browser with a long-lived cookie so page
// reloads keep a stable token independent of the per-connection id.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

type roomStatus struct {
	domain.RoomInfo
	MemberCount int `json:"member_count"`
}

func SetupRouter(ctx context.Context, cfg *config.Config, relay *app.Relay, ctl *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("SignalSessions", store))
	r.Use(ClientTokenMiddleware())

	started := time.Now()

	r.GET("/", func(c *gin.Context) {
		page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Clan RICH Signal</title></head>
<body style="background:#0a0a0f;color:#e0e0ff;font-family:monospace;padding:2rem">
  <h1>Clan RICH — Signal Server</h1>
  <p>Port: <b>%d</b></p>
  <p>WebSocket: <code>wss://%s/ws</code></p>
  <p>Status: <span style="color:#43b581">ONLINE</span></p>
</body>
</html>`, cfg.Port, c.Request.Host)
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(started).Seconds(),
		})
	})

	api := r.Group("/api")

	// GET /api/rooms — read-only status: configured metadata merged with
	// live member counts. Rooms outside the configured set appear too, as
	// long as they hold members.
	api.GET("/rooms", func(c *gin.Context) {
		live := relay.Rooms.Stats()
		counts := make(map[domain.RoomID]int, len(live))
		for _, s := range live {
			counts[s.ID] = s.MemberCount
		}
		out := make([]roomStatus, 0, len(cfg.Rooms)+len(live))
		for _, info := range cfg.Rooms {
			out = append(out, roomStatus{RoomInfo: info, MemberCount: counts[info.ID]})
			delete(counts, info.ID)
		}
		for id, n := range counts {
			out = append(out, roomStatus{RoomInfo: cfg.RoomInfo(id), MemberCount: n})
		}
		c.JSON(http.StatusOK, gin.H{"rooms": out, "clients": relay.Registry.Count()})
	})

	r.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("ct", c.GetString("client_token")).Msg("ws endpoint hit")
		ctl.HandleSignal(ctx, c)
	})

	return r
}
