package listener

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telekom/linkctl/pkg/metrics"
	"github.com/telekom/linkctl/pkg/ratelimit"
)

var (
	ErrNotSupported      = errors.New("deep-link activation is not supported on this platform")
	ErrAlreadyRunning    = errors.New("another listener is already running for this scheme")
	ErrAlreadySubscribed = errors.New("listener already has a subscriber")
	ErrClosed            = errors.New("listener is closed")
)

const (
	DefaultQueueSize = 16
	shutdownTimeout  = 5 * time.Second
	maxRequestBytes  = 64 << 10
)

// Handler receives one raw activation URI. It is never called concurrently.
type Handler func(ctx context.Context, raw string)

type Config struct {
	// SocketPath is where the IPC socket is created.
	SocketPath string
	// QueueSize bounds activations waiting for the dispatcher.
	QueueSize int
	// RateLimit applies to POST /v1/activations.
	RateLimit ratelimit.Config
	// Initial holds URIs the process was launched with; they are dispatched
	// before anything received over the socket.
	Initial []string
	Debug   bool
	// Listen binds SocketPath; nil uses the platform socket.
	Listen func(path string) (net.Listener, error)
}

// DefaultSocketPath returns the per-user socket location for scheme.
func DefaultSocketPath(scheme string) string {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "linkctl", scheme+".sock")
}

type Listener struct {
	cfg Config
	log *zap.SugaredLogger

	mu         sync.Mutex
	subscribed bool
	closed     bool
	cancel     context.CancelFunc

	queue   chan string
	limiter *ratelimit.Limiter
	server  *http.Server
	serveMu sync.Mutex
	serveErr error
	done    chan struct{}
}

func New(cfg Config, log *zap.SugaredLogger) *Listener {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.RateLimit == (ratelimit.Config{}) {
		cfg.RateLimit = ratelimit.DefaultActivationConfig()
	}
	return &Listener{
		cfg:  cfg,
		log:  log,
		done: make(chan struct{}),
	}
}

// SocketPath returns the socket the listener serves on.
func (l *Listener) SocketPath() string {
	return l.cfg.SocketPath
}

// Subscribe binds the socket and starts dispatching activations to handler.
// It returns once the socket accepts connections; delivery continues until
// ctx is cancelled or Close is called.
func (l *Listener) Subscribe(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if l.subscribed {
		return ErrAlreadySubscribed
	}
	if l.cfg.SocketPath == "" {
		return errors.New("socket path is required")
	}

	listen := l.cfg.Listen
	if listen == nil {
		listen = listenSocket
	}
	ln, err := listen(l.cfg.SocketPath)
	if err != nil {
		return err
	}
	l.subscribed = true

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.queue = make(chan string, l.cfg.QueueSize)
	l.limiter = ratelimit.New(l.cfg.RateLimit)
	l.server = &http.Server{
		Handler:           l.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	dispatched := make(chan struct{})
	go l.dispatch(ctx, handler, dispatched)
	go l.serve(ln, cancel)
	go l.stop(ctx, dispatched)

	l.log.Infow("Listening for deep-link activations", "socket", l.cfg.SocketPath, "queueSize", l.cfg.QueueSize)
	return nil
}

// Close stops the listener. Activations still queued are discarded.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	cancel := l.cancel
	subscribed := l.subscribed
	l.mu.Unlock()

	if !subscribed {
		close(l.done)
		return nil
	}
	cancel()
	<-l.done
	return nil
}

// Wait blocks until the listener has stopped and returns the server error
// that stopped it, if any.
func (l *Listener) Wait() error {
	<-l.done
	l.serveMu.Lock()
	defer l.serveMu.Unlock()
	return l.serveErr
}

func (l *Listener) routes() http.Handler {
	if !l.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := l.log.Desugar()
	engine := gin.New()
	engine.Use(
		ginzap.Ginzap(logger, time.RFC3339, true),
		ginzap.RecoveryWithZap(logger, true),
	)

	engine.POST("/v1/activations", l.limiter.Middleware(ratelimit.PeerKey), l.acceptActivation)
	engine.GET("/healthz", l.healthz)
	engine.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))
	return engine
}

func (l *Listener) serve(ln net.Listener, cancel context.CancelFunc) {
	if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.log.Errorw("Activation server stopped", "error", err)
		l.serveMu.Lock()
		l.serveErr = err
		l.serveMu.Unlock()
		cancel()
	}
}

func (l *Listener) stop(ctx context.Context, dispatched <-chan struct{}) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := l.server.Shutdown(shutdownCtx); err != nil {
		l.log.Warnw("Activation server did not shut down cleanly", "error", err)
	}
	l.limiter.Stop()
	<-dispatched

	if dropped := len(l.queue); dropped > 0 {
		metrics.ListenerRejected.WithLabelValues("shutdown").Add(float64(dropped))
		l.log.Warnw("Discarding queued activations on shutdown", "count", dropped)
	}
	metrics.ListenerQueueDepth.Set(0)
	if err := os.Remove(l.cfg.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		l.log.Warnw("Failed to remove activation socket", "socket", l.cfg.SocketPath, "error", err)
	}

	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.log.Infow("Stopped listening for deep-link activations", "socket", l.cfg.SocketPath)
	close(l.done)
}

func (l *Listener) dispatch(ctx context.Context, handler Handler, dispatched chan<- struct{}) {
	defer close(dispatched)

	for _, raw := range l.cfg.Initial {
		if ctx.Err() != nil {
			return
		}
		l.invoke(ctx, handler, raw)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-l.queue:
			metrics.ListenerQueueDepth.Set(float64(len(l.queue)))
			l.invoke(ctx, handler, raw)
		}
	}
}

func (l *Listener) invoke(ctx context.Context, handler Handler, raw string) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorw("Activation handler panicked", "panic", r)
		}
	}()
	handler(ctx, raw)
}

type activationRequest struct {
	URI string `json:"uri" binding:"required"`
}

type apiError struct {
	Error string `json:"error"`
}

func (l *Listener) acceptActivation(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)
	var req activationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.ListenerRejected.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, apiError{Error: "request must be a JSON object with a uri field"})
		return
	}

	select {
	case l.queue <- req.URI:
		metrics.ListenerQueueDepth.Set(float64(len(l.queue)))
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
	default:
		metrics.ListenerRejected.WithLabelValues("queue_full").Inc()
		l.log.Warnw("Activation queue full, rejecting activation", "queueSize", cap(l.queue))
		c.JSON(http.StatusServiceUnavailable, apiError{Error: "activation queue is full"})
	}
}

func (l *Listener) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "queued": len(l.queue)})
}
