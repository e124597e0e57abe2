// Package server exposes the advisor over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/graphrx/medadvisor"
	"github.com/graphrx/medadvisor/pkg/config"
	"github.com/graphrx/medadvisor/pkg/server/handlers"
)

// Server is the HTTP front end over a medadvisor client.
type Server struct {
	config *config.Config
	client *medadvisor.Client
	router *gin.Engine
	server *http.Server
}

// New creates a server instance.
func New(cfg *config.Config, client *medadvisor.Client) *Server {
	return &Server{
		config: cfg,
		client: client,
	}
}

// Setup builds the router, middleware and routes.
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.client)
	retrieveHandler := handlers.NewRetrieveHandler(s.client)
	chatHandler := handlers.NewChatHandler(s.client)
	ingestHandler := handlers.NewIngestHandler(s.client)

	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/chat", chatHandler.Chat)
		v1.POST("/search", retrieveHandler.SearchAdvice)

		patients := v1.Group("/patients")
		{
			patients.GET("/:id/medications", retrieveHandler.PatientMedications)
			patients.GET("/:id/diagnoses", retrieveHandler.PatientDiagnoses)
			patients.GET("/:id/advice", retrieveHandler.PatientAdvice)
		}

		medications := v1.Group("/medications")
		{
			medications.GET("/:name/interactions", retrieveHandler.DrugInteractions)
			medications.GET("/:name/info", retrieveHandler.MedicationInfo)
			medications.GET("/:name/dosage", retrieveHandler.MedicationDosage)
		}

		v1.GET("/contraindications", retrieveHandler.Contraindications)

		ingest := v1.Group("/ingest")
		{
			ingest.POST("/note", ingestHandler.IngestNote)
		}

		v1.DELETE("/cache", ingestHandler.ClearCache)
	}
}

// Start runs the server until it is shut down.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router exposes the configured engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
