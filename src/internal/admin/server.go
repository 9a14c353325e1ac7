// FILE: src/internal/admin/server.go
package admin

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/log"
	"github.com/valyala/fasthttp"

	"logroute/src/internal/service"
	"logroute/src/internal/sink"
	"logroute/src/internal/version"
)

// Config declares the admin HTTP surface.
type Config struct {
	Host string
	Port int

	// BearerTokens and JWTSigningKey enable authorization; both empty
	// leaves the surface open.
	BearerTokens  []string
	JWTSigningKey string
}

// Server exposes the engine's operational surface over HTTP: status,
// configuration reload, on-demand rotation and memory-buffer reads.
type Server struct {
	cfg    Config
	svc    *service.Service
	vault  *TokenVault
	server *fasthttp.Server
	logger *log.Logger

	startTime time.Time
	requests  atomic.Uint64
	denied    atomic.Uint64
}

func NewServer(cfg Config, svc *service.Service, logger *log.Logger) (*Server, error) {
	if cfg.Port == 0 {
		return nil, fmt.Errorf("admin server requires a port")
	}
	vault, err := NewTokenVault(cfg.BearerTokens, cfg.JWTSigningKey, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		svc:       svc,
		vault:     vault,
		logger:    logger,
		startTime: time.Now(),
	}
	s.server = &fasthttp.Server{
		Handler:            s.requestHandler,
		Name:               "logroute-admin",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}
	return s, nil
}

// Start begins serving and returns once the listener fails or the
// server is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.logger.Info("msg", "Admin server listening",
		"component", "admin",
		"addr", addr)
	return s.server.ListenAndServe(addr)
}

func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

func (s *Server) requestHandler(ctx *fasthttp.RequestCtx) {
	s.requests.Add(1)

	path := string(ctx.Path())
	s.logger.Debug("msg", "Admin request",
		"component", "admin",
		"method", string(ctx.Method()),
		"path", path,
		"remote_addr", ctx.RemoteAddr().String())

	if err := s.vault.Authorize(string(ctx.Request.Header.Peek("Authorization"))); err != nil {
		s.denied.Add(1)
		s.logger.Warn("msg", "Admin request denied",
			"component", "admin",
			"path", path,
			"remote_addr", ctx.RemoteAddr().String(),
			"error", err)
		s.writeError(ctx, fasthttp.StatusUnauthorized, "unauthorized")
		return
	}

	switch path {
	case "/status":
		s.handleStatus(ctx)
	case "/reload":
		s.handleReload(ctx)
	case "/rotate":
		s.handleRotate(ctx)
	case "/buffer":
		s.handleBuffer(ctx)
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (s *Server) handleStatus(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, "GET required")
		return
	}

	status := map[string]any{
		"service": "logroute",
		"version": version.String(),
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
		"admin": map[string]any{
			"requests": s.requests.Load(),
			"denied":   s.denied.Load(),
		},
	}
	for k, v := range s.svc.Stats() {
		status[k] = v
	}
	s.writeJSON(ctx, fasthttp.StatusOK, status)
}

// handleReload applies the request body as a full replacement
// configuration. The response reports clean separately from applied:
// valid entries of a dirty text still go live.
func (s *Server) handleReload(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, "POST required")
		return
	}
	body := ctx.PostBody()
	if len(body) == 0 {
		s.writeError(ctx, fasthttp.StatusBadRequest, "configuration text required")
		return
	}

	clean := s.svc.SetConfiguration(body)
	code := fasthttp.StatusOK
	if !clean {
		code = fasthttp.StatusUnprocessableEntity
	}
	s.writeJSON(ctx, code, map[string]any{
		"clean":        clean,
		"destinations": s.svc.Registry().Len(),
	})
}

func (s *Server) handleRotate(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, "POST required")
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"rotated": s.svc.RotateFiles(),
	})
}

// handleBuffer returns the contents of a memory-buffer destination,
// oldest first.
func (s *Server) handleBuffer(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, "GET required")
		return
	}
	name := string(ctx.QueryArgs().Peek("name"))
	if name == "" {
		s.writeError(ctx, fasthttp.StatusBadRequest, "name parameter required")
		return
	}

	dest, ok := s.svc.GetLogger(name)
	if !ok {
		s.writeError(ctx, fasthttp.StatusNotFound, fmt.Sprintf("destination %q not found", name))
		return
	}
	mem, ok := dest.(*sink.MemorySink)
	if !ok {
		s.writeError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("destination %q is not a memory buffer", name))
		return
	}

	records := mem.Snapshot()
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		entry := map[string]any{
			"time":     rec.Time,
			"source":   rec.Source.String(),
			"level":    rec.Level.String(),
			"keywords": rec.Keywords.String(),
			"message":  rec.Message,
		}
		if len(rec.Fields) > 0 {
			entry["fields"] = json.RawMessage(rec.Fields)
		}
		out = append(out, entry)
	}
	s.writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"name":    name,
		"count":   len(out),
		"records": out,
	})
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, code int, payload any) {
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetBody(data)
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, code int, msg string) {
	s.writeJSON(ctx, code, map[string]string{"error": msg})
}
