// Package fiber provides the zerolog access log middleware of the permission API.
package fiber

import (
	"io"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/marketplace-tools/permd/internal/logger"
)

const (
	// HeaderRequestID carries the request id. A missing id is generated.
	HeaderRequestID = "X-Request-ID"

	// HeaderResponseTime is the handling time in milliseconds.
	HeaderResponseTime = "X-Response-Time"

	// LocalsRequestID names the fiber local holding the request id.
	LocalsRequestID = "requestID"
)

// Config of the access log middleware.
type Config struct {
	// Next skips the middleware when it returns true.
	Next func(c *fiber.Ctx) bool

	// Log selects the file and console sinks.
	Log logger.Log

	// Output is an extra sink, written to regardless of Log.
	Output io.Writer

	// SkipPaths are not logged when Log.DisableCheckAlive is set.
	SkipPaths []string

	// UserLocalsKey names the fiber local holding the authenticated user id. Empty disables the field.
	UserLocalsKey string

	// CacheControlError is set on responses whose error could not be rendered.
	CacheControlError string
}

type accessLog struct {
	cfg  Config
	log  zerolog.Logger
	skip map[string]struct{}
}

// New returns the access log middleware. Without any sink it only tags requests.
func New(cfg Config) fiber.Handler {
	if cfg.CacheControlError == "" {
		cfg.CacheControlError = "max-age=0"
	}

	a := &accessLog{cfg: cfg, log: zerolog.Nop(), skip: map[string]struct{}{}}

	if cfg.Log.DisableCheckAlive {
		for _, p := range cfg.SkipPaths {
			a.skip[p] = struct{}{}
		}
	}

	if writers := sinks(cfg); len(writers) > 0 {
		a.log = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	}

	return a.handle
}

func sinks(cfg Config) []io.Writer {
	var writers []io.Writer

	if cfg.Log.File.Enabled {
		if fw := newRollingAccessFile(&cfg.Log); fw != nil {
			writers = append(writers, fw)
		}
	}

	if cfg.Log.Console.Enabled && cfg.Log.EnableAccessLogToConsole {
		if cfg.Log.Console.UseConsoleWriter {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	if cfg.Output != nil {
		writers = append(writers, cfg.Output)
	}

	return writers
}

func (a *accessLog) handle(c *fiber.Ctx) error {
	if a.cfg.Next != nil && a.cfg.Next(c) {
		return c.Next()
	}

	requestID := c.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Locals(LocalsRequestID, requestID)
	c.Set(HeaderRequestID, requestID)

	start := time.Now()

	chainErr := c.Next()
	if chainErr != nil {
		if err := c.App().ErrorHandler(c, chainErr); err != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError) //nolint:errcheck // status only
			c.Set(fiber.HeaderCacheControl, a.cfg.CacheControlError)
		}
	}

	latency := time.Since(start)
	c.Set(HeaderResponseTime, strconv.FormatInt(latency.Milliseconds(), 10))

	if _, ok := a.skip[c.Path()]; ok {
		return nil
	}

	// fasthttp normalizes the path, the raw request uri keeps duplicate slashes
	uri := string(c.Request().RequestURI())
	status := c.Response().StatusCode()

	ev := a.log.WithLevel(levelFor(status)).
		Str("request_id", requestID).
		Str("method", c.Method()).
		Str("uri", uri).
		Str("route", c.Route().Path).
		Int("status", status).
		Dur("latency", latency).
		Str("ip", c.IP()).
		Str("host", c.Hostname())

	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		ev.Str("forwarded_for", fwd)
	}

	if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
		ev.Str("user_agent", ua)
	}

	if a.cfg.UserLocalsKey != "" {
		if user, ok := c.Locals(a.cfg.UserLocalsKey).(string); ok && user != "" {
			ev.Str("user", user)
		}
	}

	if chainErr != nil {
		ev.Err(chainErr)
	}

	ev.Send()

	return nil
}

// levelFor maps a status code to the level of its access log line.
func levelFor(status int) zerolog.Level {
	switch {
	case status >= fiber.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= fiber.StatusBadRequest:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// newRollingAccessFile uses lumberjack to create file based access log.
func newRollingAccessFile(cfg *logger.Log) io.Writer {
	if cfg.File.Path != "" {
		if err := os.MkdirAll(cfg.File.Path, 0o750); err != nil {
			log.Error().Err(err).Str("path", cfg.File.Path).Msg("can't create log directory")

			return nil
		}
	}

	return &lumberjack.Logger{
		Filename:   path.Join(cfg.File.Path, cfg.File.AccessLog),
		MaxSize:    cfg.File.AccessMaxSize,
		MaxAge:     cfg.File.AccessMaxAge,
		MaxBackups: cfg.File.AccessMaxBackups,
	}
}
