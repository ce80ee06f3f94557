package server

import (
	"github.com/gradecoach/gradecoach/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes(grading handlers.GradingService) {
	// The one business endpoint
	s.router.Post("/api/grade", handlers.NewGradeHandler(grading).ServeHTTP)

	// Health endpoints
	s.router.Get("/health", handlers.HealthHandler)
	s.router.Get("/health/live", handlers.LivenessHandler)
	s.router.Get("/health/ready", handlers.ReadinessHandler)
	s.router.Get("/health/startup", handlers.StartupHandler)

	// Version endpoint
	s.router.Get("/version", handlers.VersionHandler)

	// Metrics endpoint (in server package to access HandleError)
	s.router.Get("/metrics", MetricsHandler)
}
