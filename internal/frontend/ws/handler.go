// Package ws is the client transport: a chi router serving a JSON websocket
// endpoint whose frames are handed to the battle dispatcher, with each
// client's outbound buffer drained onto its socket.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/session"
)

// disconnectTimeout bounds the battle cleanup that follows a closed socket.
const disconnectTimeout = 5 * time.Second

// Dispatcher routes one inbound frame from an authenticated client.
type Dispatcher interface {
	Dispatch(ctx context.Context, from string, frame []byte) error
}

// DisconnectHandler is told when a client's socket closes.
type DisconnectHandler interface {
	HandleDisconnect(ctx context.Context, participantID string)
}

// Handler upgrades authenticated requests to websockets and bridges them to
// the client registry and the dispatcher.
type Handler struct {
	clients     *session.Manager
	dispatcher  Dispatcher
	disconnects DisconnectHandler
	verifier    *Verifier
	cfg         config.HTTPConfig
	logger      *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHandler creates a Handler.
//
// Precondition: every argument must be non-nil.
func NewHandler(cfg config.HTTPConfig, clients *session.Manager, dispatcher Dispatcher, disconnects DisconnectHandler, verifier *Verifier, logger *zap.Logger) *Handler {
	return &Handler{
		clients:     clients,
		dispatcher:  dispatcher,
		disconnects: disconnects,
		verifier:    verifier,
		cfg:         cfg,
		logger:      logger,
		conns:       make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP authenticates the request, registers the client and serves the
// socket until either side closes it. A closed socket counts as a disconnect
// for any battle the client is in.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := h.verifier.Authenticate(r)
	if err != nil {
		h.logger.Debug("rejecting websocket upgrade", zap.Error(err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	name := id.Name
	if name == "" {
		name = id.ID
	}
	client, err := h.clients.AddClient(id.ID, name)
	if err != nil {
		http.Error(w, "already connected", http.StatusConflict)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.String("client_id", id.ID), zap.Error(err))
		_ = h.clients.RemoveClient(id.ID)
		return
	}
	h.track(conn)
	connectedAt := time.Now()
	logger := h.logger.With(zap.String("client_id", id.ID))
	logger.Info("client connected", zap.Int("online", h.clients.ClientCount()))

	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), disconnectTimeout)
		h.disconnects.HandleDisconnect(ctx, id.ID)
		cancel()
		_ = h.clients.RemoveClient(id.ID)
		h.untrack(conn)
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
		logger.Info("client disconnected",
			zap.Duration("connected", time.Since(connectedAt)),
			zap.Int("dropped", client.Entity.Dropped()),
		)
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.writeLoop(ctx, conn, client, logger)
	go h.pingLoop(ctx, conn, logger)
	h.readLoop(ctx, conn, id.ID, logger)
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, client *session.Client, logger *zap.Logger) {
	for payload := range client.Entity.Events() {
		wctx, cancel := h.timeout(ctx, h.cfg.WriteTimeout)
		err := conn.Write(wctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			logger.Debug("websocket write failed", zap.Error(err))
			_ = conn.Close(websocket.StatusInternalError, "write failed")
			return
		}
	}
}

// pingLoop keeps an idle client's socket open and detects dead peers: a ping
// goes out every ReadTimeout/2 and must be answered within ReadTimeout.
// Reads themselves carry no deadline, since waiting on the turn timer is a
// legitimate reason to stay silent.
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn, logger *zap.Logger) {
	if h.cfg.ReadTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(max(h.cfg.ReadTimeout/2, time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		pctx, cancel := context.WithTimeout(ctx, h.cfg.ReadTimeout)
		err := conn.Ping(pctx)
		cancel()
		if err != nil {
			if ctx.Err() == nil {
				logger.Debug("websocket ping unanswered", zap.Error(err))
				_ = conn.Close(websocket.StatusPolicyViolation, "ping timeout")
			}
			return
		}
	}
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, clientID string, logger *zap.Logger) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !errors.Is(err, context.Canceled) {
					logger.Debug("websocket read ended", zap.Error(err))
				}
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		if err := h.dispatcher.Dispatch(ctx, clientID, data); err != nil {
			logger.Debug("frame rejected", zap.Error(err))
		}
	}
}

func (h *Handler) timeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handler) track(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *Handler) untrack(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

// CloseAll closes every open socket with StatusGoingAway.
//
// Postcondition: every read loop returns shortly after; their disconnect
// cleanup still runs.
func (h *Handler) CloseAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Close(websocket.StatusGoingAway, "server shutting down")
		}()
	}
	wg.Wait()
}

// OpenConnections returns the number of sockets currently served.
func (h *Handler) OpenConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
