package logger

import (
	"errors"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ginRequestIDKey mirrors middleware.RequestIDKey; the logger package
// cannot import the http layer
const ginRequestIDKey = "request_id"

const defaultSlowRequest = 5 * time.Second

type accessLog struct {
	skip map[string]struct{}
	slow time.Duration
}

// AccessLogOption tunes AccessLog
type AccessLogOption func(*accessLog)

// SkipPaths keeps successful requests to these routes out of the access
// log. Failures are always logged.
func SkipPaths(routes ...string) AccessLogOption {
	return func(a *accessLog) {
		for _, r := range routes {
			a.skip[r] = struct{}{}
		}
	}
}

// SlowRequestThreshold raises requests slower than d to warn; zero disables
func SlowRequestThreshold(d time.Duration) AccessLogOption {
	return func(a *accessLog) { a.slow = d }
}

// AccessLog attaches a request-scoped logger to the request context and
// writes one entry per request once the handler chain returns. Middleware
// further down may enrich the context logger (operator, site) and those
// fields end up on the access entry as well.
func AccessLog(base *zap.Logger, opts ...AccessLogOption) gin.HandlerFunc {
	cfg := accessLog{skip: map[string]struct{}{}, slow: defaultSlowRequest}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		log := base
		if id := c.GetString(ginRequestIDKey); id != "" {
			ctx, log = WithRequestID(ctx, log, id)
		}
		log = log.With(zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path))
		c.Request = c.Request.WithContext(WithContext(ctx, log))

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if _, skipped := cfg.skip[route]; skipped && status < http.StatusBadRequest {
			return
		}

		latency := time.Since(start)
		level := zapcore.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zapcore.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zapcore.WarnLevel
		case cfg.slow > 0 && latency >= cfg.slow:
			level = zapcore.WarnLevel
		}

		reqLog := FromContext(c.Request.Context())
		ce := reqLog.Check(level, "HTTP request")
		if ce == nil {
			return
		}
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if route != "" {
			fields = append(fields, zap.String("route", route))
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if ua := c.Request.UserAgent(); ua != "" {
			fields = append(fields, zap.String("user_agent", ua))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}
		ce.Write(fields...)
	}
}

// Recover turns a handler panic into a 500 error envelope. A panic caused
// by the client hanging up is logged without writing a response.
func Recover(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log := FromContext(c.Request.Context())
			if log == nopLogger {
				log = base
			}

			if brokenPipe(rec) {
				log.Warn("Client connection lost", zap.Any("error", rec))
				c.Abort()
				return
			}

			log.Error("Panic recovered", zap.Any("error", rec), zap.Stack("stacktrace"))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":       "ERR_INTERNAL",
					"message":    "Internal server error",
					"request_id": c.GetString(ginRequestIDKey),
				},
			})
		}()
		c.Next()
	}
}

func brokenPipe(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if errors.As(opErr, &sysErr) {
		return errors.Is(sysErr.Err, syscall.EPIPE) || errors.Is(sysErr.Err, syscall.ECONNRESET)
	}
	return false
}

// GetGinLogger returns the request-scoped logger installed by AccessLog
func GetGinLogger(c *gin.Context) *zap.Logger {
	return FromContext(c.Request.Context())
}
