package api

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/entityprop/internal/form"
	"github.com/mesh-intelligence/entityprop/internal/storage"
	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// Bulk form operations.
const (
	opBuild  = "build"
	opAdd    = "add"
	opDelete = "delete"
	opSubmit = "submit"
)

type bulkRequest struct {
	Op    string     `json:"op"`
	State form.State `json:"state"`
}

type formResponse struct {
	Form  *types.Form `json:"form"`
	State *form.State `json:"state"`
}

// bindState reads a form.State from the body; an empty body is an empty
// state. The destination query parameter overrides the body's.
func bindState(c *gin.Context) (*form.State, bool) {
	st := &form.State{}
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(st); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return nil, false
		}
	}
	if d := c.Query("destination"); d != "" {
		st.Destination = d
	}
	return st, true
}

func (s *Server) listTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entity_types": s.listing.Types()})
}

func (s *Server) listProperties(c *gin.Context) {
	table, err := s.listing.Properties(c.Request.Context(), c.Param("entity_type"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

func (s *Server) buildPropertyForm(c *gin.Context) {
	st, ok := bindState(c)
	if !ok {
		return
	}
	f, err := s.property.Build(c.Request.Context(), c.Param("entity_type"), c.Query("name"), st)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, formResponse{Form: f, State: st})
}

func (s *Server) createProperty(c *gin.Context) {
	st, ok := bindState(c)
	if !ok {
		return
	}
	res, err := s.property.Submit(c.Request.Context(), c.Param("entity_type"), "", st)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) updateProperty(c *gin.Context) {
	st, ok := bindState(c)
	if !ok {
		return
	}
	res, err := s.property.Submit(c.Request.Context(), c.Param("entity_type"), c.Param("name"), st)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) bulkProperties(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if d := c.Query("destination"); d != "" {
		req.State.Destination = d
	}
	ctx := c.Request.Context()
	et := c.Param("entity_type")

	switch req.Op {
	case opSubmit:
		res, err := s.properties.Submit(ctx, et, &req.State)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
		return
	case opAdd:
		s.properties.AddItem(&req.State)
	case opDelete:
		s.properties.DeleteItem(&req.State)
	case opBuild, "":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown op " + req.Op})
		return
	}

	f, err := s.properties.Build(ctx, et, &req.State)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, formResponse{Form: f, State: &req.State})
}

func (s *Server) buildDeleteForm(c *gin.Context) {
	f, err := s.deletion.Build(c.Request.Context(), c.Param("entity_type"), c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": f})
}

func (s *Server) deleteProperty(c *gin.Context) {
	st := &form.State{Destination: c.Query("destination")}
	res, err := s.deletion.Submit(c.Request.Context(), c.Param("entity_type"), c.Param("name"), st)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) listFields(c *gin.Context) {
	et, err := s.svc.EntityType(c.Param("entity_type"))
	if err != nil {
		s.fail(c, err)
		return
	}
	defs, err := s.svc.FieldDefinitions(c.Request.Context(), et.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	fields := make([]types.FieldDefinition, 0, len(defs))
	for _, d := range defs {
		fields = append(fields, d)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

func (s *Server) syncEntityType(c *gin.Context) {
	installed, err := s.svc.RebuildEntityType(c.Request.Context(), c.Param("entity_type"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if installed == nil {
		installed = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"installed": installed})
}

func (s *Server) saveEntity(c *gin.Context) {
	et, err := s.svc.EntityType(c.Param("entity_type"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var e storage.Entity
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	id, err := s.entities.SaveEntity(c.Request.Context(), et.ID, e)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) loadEntity(c *gin.Context) {
	et, err := s.svc.EntityType(c.Param("entity_type"))
	if err != nil {
		s.fail(c, err)
		return
	}
	e, err := s.entities.LoadEntity(c.Request.Context(), et.ID, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) buildSettingsForm(c *gin.Context) {
	f, err := s.settings.Build(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": f})
}

func (s *Server) saveSettings(c *gin.Context) {
	st, ok := bindState(c)
	if !ok {
		return
	}
	res, err := s.settings.Submit(c.Request.Context(), st)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// fail maps err to a status code and writes it.
func (s *Server) fail(c *gin.Context, err error) {
	var errs form.Errors
	if errors.As(err, &errs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	msg := err.Error()
	var ue *form.UserError
	if errors.As(err, &ue) {
		msg = ue.Message
	}
	c.JSON(status, gin.H{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrEntityTypeNotFound),
		errors.Is(err, types.ErrPropertyNotFound),
		errors.Is(err, types.ErrEntityNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrHasData),
		errors.Is(err, types.ErrFieldStorageExists),
		errors.Is(err, types.ErrDuplicateName),
		errors.Is(err, types.ErrNameImmutable):
		return http.StatusConflict
	case errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrNameReserved),
		errors.Is(err, types.ErrInvalidDefinition),
		errors.Is(err, types.ErrFieldTypeNotFound),
		errors.Is(err, types.ErrUnknownColumn),
		errors.Is(err, types.ErrInvalidDocument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
