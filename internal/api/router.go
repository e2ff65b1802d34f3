package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kiliankoe/storychain/internal/metrics"
)

type RouterOptions struct {
	DevMode bool
	Metrics *metrics.Recorder
}

// NewRouter builds the gin engine with recovery, access logging, health and
// the game routes mounted.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(recovery(opts.DevMode))
	r.Use(accessLog(opts.Metrics))
	r.Use(cors())

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method Not Allowed"})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	h.Mount(r)
	return r
}

// accessLog logs one line per request, skipping socket.io polling noise.
func accessLog(rec *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		rec.RecordHTTPRequest(c.Request.Method, route, status, dur)
		log.Info().Str("method", c.Request.Method).Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	}
}

// cors lets browser clients on other origins call the API. Preflight
// requests are answered here, before routing.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func recovery(devMode bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		stack := debug.Stack()
		log.Error().Interface("panic", recovered).Bytes("stack", stack).Str("path", c.Request.URL.Path).Msg("handler panic")
		body := gin.H{"error": "Internal error", "code": "internal"}
		if devMode {
			body["detail"] = fmt.Sprint(recovered)
			body["stack"] = string(stack)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}
