package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/qedlabs/labyrinth-gateway/internal/config"
	"github.com/qedlabs/labyrinth-gateway/internal/gateway/registry"
)

// Handler terminates WebSocket upgrade requests: it validates the
// client's token, installs a session in the registry, and runs the
// connection's read loop. One Handler serves all connections.
type Handler struct {
	cfg      config.ServerConfig
	verifier *TokenVerifier
	registry registry.Registry
	ingress  *Ingress
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the WebSocket admission handler.
//
// Precondition: all arguments must be non-nil / non-zero.
func NewHandler(cfg config.ServerConfig, verifier *TokenVerifier, reg registry.Registry, ingress *Ingress, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		verifier: verifier,
		registry: reg,
		ingress:  ingress,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	allowedSet := make(map[string]bool, len(allowed))
	wildcard := false
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
		allowedSet[o] = true
	}
	return func(r *http.Request) bool {
		if wildcard {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin header.
			return true
		}
		return allowedSet[origin]
	}
}

// ServeHTTP upgrades the request and admits or rejects the connection.
// Admission failures close with 1008 before any registry involvement;
// no inbound frame is processed before the session is installed.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	conn := newSessionConn(raw, h.cfg.WriteTimeout)

	if token == "" {
		_ = conn.Close(ClosePolicyViolation, "No token provided")
		return
	}

	userID, err := h.verifier.Verify(token)
	if err != nil {
		h.logger.Warn("token verification failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		_ = conn.Close(ClosePolicyViolation, "Invalid token")
		return
	}

	// Install before the read loop starts so no frame can be processed
	// without a session. A previous connection for the same user is
	// displaced and told why.
	if prev := h.registry.Register(userID, conn); prev != nil {
		_ = prev.Close(CloseSuperseded, "superseded by newer connection")
		h.logger.Info("session superseded",
			zap.String("user_id", userID),
		)
	}

	h.logger.Info("client connected",
		zap.String("user_id", userID),
		zap.String("remote_addr", r.RemoteAddr),
	)

	start := time.Now()
	h.readLoop(r.Context(), userID, conn)

	// Compare-and-delete: if a newer connection superseded this one,
	// its registration stays untouched.
	h.registry.Deregister(userID, conn)
	_ = conn.Close(websocket.CloseNormalClosure, "")

	h.logger.Info("client disconnected",
		zap.String("user_id", userID),
		zap.Duration("duration", time.Since(start)),
	)
}

// readLoop pumps frames from the connection through the ingress codec
// until the connection dies or the request context is cancelled.
func (h *Handler) readLoop(ctx context.Context, userID string, conn *sessionConn) {
	raw := conn.conn
	raw.SetReadLimit(h.cfg.MaxMessageBytes)
	_ = raw.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	// Keepalive pings at a comfortable margin inside the read timeout.
	pingPeriod := h.cfg.ReadTimeout * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	done := make(chan struct{})
	defer close(done)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.ping(); err != nil {
					return
				}
			case <-ctx.Done():
				_ = conn.Close(websocket.CloseGoingAway, "server shutting down")
				return
			case <-done:
				return
			}
		}
	}()

	for {
		msgType, frame, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				h.logger.Debug("websocket read error",
					zap.String("user_id", userID),
					zap.Error(err),
				)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		h.ingress.HandleFrame(ctx, userID, conn, frame)
	}
}
