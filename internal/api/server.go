// Package api exposes the property listing and editor forms over HTTP as
// JSON.
package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/entityprop/internal/entityprop"
	"github.com/mesh-intelligence/entityprop/internal/form"
	"github.com/mesh-intelligence/entityprop/internal/listing"
	"github.com/mesh-intelligence/entityprop/internal/storage"
)

// Entities reads and writes entity rows. Implemented by storage.Backend.
type Entities interface {
	SaveEntity(ctx context.Context, entityType string, e storage.Entity) (string, error)
	LoadEntity(ctx context.Context, entityType, id string) (*storage.Entity, error)
}

// Server holds the HTTP handlers.
type Server struct {
	svc        *entityprop.Service
	entities   Entities
	listing    *listing.Listing
	property   *form.PropertyForm
	properties *form.PropertiesForm
	deletion   *form.DeleteConfirmForm
	settings   *form.SettingsForm
	logger     *log.Logger
}

// NewServer creates a Server over svc and entities.
func NewServer(svc *entityprop.Service, entities Entities, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		svc:        svc,
		entities:   entities,
		listing:    listing.New(svc),
		property:   form.NewPropertyForm(svc),
		properties: form.NewPropertiesForm(svc),
		deletion:   form.NewDeleteConfirmForm(svc),
		settings:   form.NewSettingsForm(svc),
		logger:     logger,
	}
}

// Router returns the gin engine serving the API under /api.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithWriter(s.logger.Writer()))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"Content-Length"},
	}))

	api := r.Group("/api")
	{
		api.GET("/entity-types", s.listTypes)
		api.GET("/entity-types/:entity_type/properties", s.listProperties)

		// Static segments before the :name routes.
		api.GET("/entity-types/:entity_type/properties/form", s.buildPropertyForm)
		api.POST("/entity-types/:entity_type/properties/form", s.buildPropertyForm)
		api.POST("/entity-types/:entity_type/properties/_bulk", s.bulkProperties)

		api.POST("/entity-types/:entity_type/properties", s.createProperty)
		api.PUT("/entity-types/:entity_type/properties/:name", s.updateProperty)
		api.GET("/entity-types/:entity_type/properties/:name/delete", s.buildDeleteForm)
		api.DELETE("/entity-types/:entity_type/properties/:name", s.deleteProperty)

		api.GET("/entity-types/:entity_type/fields", s.listFields)
		api.POST("/entity-types/:entity_type/_sync", s.syncEntityType)
		api.POST("/entity-types/:entity_type/entities", s.saveEntity)
		api.GET("/entity-types/:entity_type/entities/:id", s.loadEntity)

		api.GET("/settings", s.buildSettingsForm)
		api.PUT("/settings", s.saveSettings)
	}
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
