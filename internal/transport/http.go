package transport

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Config wires the HTTP API.
type Config struct {
	Services Services
	// MCP, when set, is mounted at /mcp. It authenticates its own requests.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	rpc    *rpcHandler
	feed   *feed
	logger *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	srv := &Server{
		rpc:    &rpcHandler{services: cfg.Services},
		feed:   &feed{workspace: cfg.Services.Workspace, logger: logger},
		logger: logger,
	}

	r := chi.NewRouter()
	r.Get("/health", srv.handleHealth)
	r.With(OptionalAuthMiddleware(cfg.Services.Accounts)).Post("/rpc", srv.handleRPC)
	r.With(AuthMiddleware(cfg.Services.Accounts)).Get("/ws", srv.feed.serve)
	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/*", cfg.MCP)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}

	result, err := s.rpc.handle(r.Context(), req.Method, req.Params)
	if err != nil {
		var paramsErr errInvalidParams
		switch {
		case errors.Is(err, errMethodNotFound):
			WriteError(w, req.ID, ErrMethodNotFound, err.Error(), nil)
		case errors.As(err, &paramsErr):
			WriteError(w, req.ID, ErrInvalidParams, err.Error(), nil)
		default:
			apiErr := MapError(err)
			if apiErr.Code == CodeInternal {
				s.logger.Error("rpc call failed", "method", req.Method, "error", err)
			} else {
				s.logger.Debug("rpc call rejected", "method", req.Method, "code", apiErr.Code, "error", err)
			}
			WriteAPIError(w, req.ID, apiErr)
		}
		return
	}

	WriteResult(w, req.ID, result)
}
