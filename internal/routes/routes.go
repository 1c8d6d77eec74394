package routes

import (
	"net/http"
	"os"
	"strings"

	"communityprojects/internal/handlers"
	"communityprojects/internal/indexer"
	"communityprojects/internal/middleware"

	"github.com/gin-gonic/gin"
)

// AllowedOrigins reads ALLOWED_ORIGINS, a comma-separated list such as
// "http://localhost:3000,http://localhost:3001"
func AllowedOrigins() []string {
	var allowed []string
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			allowed = append(allowed, trimmed)
		}
	}
	return allowed
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if origin == a {
			return true
		}
	}
	return false
}

// CheckOrigin accepts websocket upgrades from same-origin pages and from the
// configured origins
func CheckOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || originAllowed(origin, allowed)
	}
}

func cors(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if originAllowed(origin, allowed) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, Origin, Cache-Control, X-Requested-With, "+middleware.AccountHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SetupRouter returns the gin router with every route configured
func SetupRouter(h *handlers.Handler, hub *indexer.Hub, limits middleware.RateLimiterConfig) *gin.Engine {
	r := gin.Default()

	r.Any("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.Use(cors(AllowedOrigins()))

	// The event stream is long-lived and not rate limited
	r.GET("/events/ws", hub.ServeWS)

	api := r.Group("", middleware.RateLimiterMiddleware(limits))
	SetupProjectRoutes(api, h)
	SetupChainRoutes(api, h)

	return r
}
