// internal/web/server.go
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"fleetwatch/internal/config"
	"fleetwatch/internal/database"
	"fleetwatch/internal/metrics"
	"fleetwatch/internal/monitoring"
)

type Server struct {
	config  *config.Config
	store   database.Store
	engine  *monitoring.Engine
	metrics *metrics.Collector
	router  *gin.Engine
	server  *http.Server

	wsMu      sync.Mutex
	wsClients map[*WSClient]bool
}

func NewServer(cfg *config.Config, store database.Store, engine *monitoring.Engine, metricsCollector *metrics.Collector) *Server {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	server := &Server{
		config:    cfg,
		store:     store,
		engine:    engine,
		metrics:   metricsCollector,
		router:    router,
		wsClients: make(map[*WSClient]bool),
	}

	server.setupRoutes()
	return server
}

func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	logrus.WithField("port", s.config.Server.Port).Info("Starting web server")

	// Push fleet snapshots to websocket clients and refresh fleet gauges
	go s.broadcastRoutine(ctx)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.POST("/heartbeat/:id", s.receiveHeartbeat)

		api.GET("/status", s.getFleetStatus)
		api.GET("/status/:id", s.getComponentStatus)

		api.GET("/alerts", s.getAlerts)
		api.DELETE("/components/:id", s.deleteComponent)

		api.GET("/health", s.healthCheck)
	}

	// WebSocket endpoint
	s.router.GET("/ws", s.handleWebSocket)

	// Prometheus metrics
	if s.config.Prometheus.Enabled {
		s.router.GET(s.config.Prometheus.MetricsPath, gin.WrapH(promhttp.Handler()))
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   "1.0.0",
	})
}

func (s *Server) broadcastRoutine(ctx context.Context) {
	ticker := time.NewTicker(s.config.Monitoring.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fleet, err := s.engine.Aggregator().FleetStatus(ctx)
			if err != nil {
				logrus.WithError(err).Error("Failed to aggregate fleet for broadcast")
				continue
			}

			s.metrics.UpdateFleet(fleet)
			s.broadcast(WSMessage{Type: "fleet_status", Data: fleet})
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
