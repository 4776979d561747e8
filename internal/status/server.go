// Package status serves a read-only view of the running engine.
package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"levelbot-go/internal/engine"
	"levelbot-go/internal/metrics"
	"levelbot-go/internal/news"
	"levelbot-go/internal/paper"
	"levelbot-go/internal/signal"
)

// Source is what the status API reads from.
type Source interface {
	Snapshot() engine.Snapshot
}

// Queue reports undelivered notifications.
type Queue interface {
	Pending() int
}

// Config wires the server's collaborators. Everything but Source is optional.
type Config struct {
	Addr    string
	Source  Source
	Board   *paper.Scoreboard
	Ledger  *paper.Ledger
	News    *news.Gate
	Queue   Queue
	Started time.Time
}

// Server exposes /status, /status/outcomes, /status/news, /healthz and /metrics.
type Server struct {
	cfg    Config
	router *gin.Engine
}

// NewServer builds the router.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Source == nil {
		return nil, errors.New("status source is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9090"
	}
	if cfg.Started.IsZero() {
		cfg.Started = time.Now()
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{cfg: cfg, router: router}
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying router.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
	grp := s.router.Group("/status")
	grp.GET("", s.handleStatus)
	grp.GET("/outcomes", s.handleOutcomes)
	grp.GET("/news", s.handleNews)
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{"ok": true, "uptime": time.Since(s.cfg.Started).Round(time.Second).String()}
	if s.cfg.Queue != nil {
		resp["notify_queue"] = s.cfg.Queue.Pending()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStatus(c *gin.Context) {
	snap := s.cfg.Source.Snapshot()
	resp := gin.H{
		"stats":       snap.Stats,
		"win_rate":    paper.WinRate(snap.Stats),
		"instruments": snap.Instruments,
	}
	if s.cfg.Board != nil {
		resp["by_symbol"] = s.cfg.Board.BySymbol()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleOutcomes(c *gin.Context) {
	outcomes := []signal.Outcome{}
	if s.cfg.Ledger != nil {
		outcomes = s.cfg.Ledger.Snapshot()
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}

func (s *Server) handleNews(c *gin.Context) {
	if s.cfg.News == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false, "events": []news.Event{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled":      true,
		"last_refresh": s.cfg.News.LastRefresh(),
		"events":       s.cfg.News.Events(),
	})
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
