package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookshelf/internal/models"
	"bookshelf/internal/tracker"
	"bookshelf/internal/viewmodel"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type progressRequest struct {
	Pages *int `json:"pages" binding:"required"`
}

// respondError maps tracker errors to status codes
func (s *Server) respondError(c *gin.Context, err error, op string) {
	switch {
	case tracker.IsValidation(err):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, tracker.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "reading not found"})
	default:
		s.logger.Error("Internal error",
			zap.Error(err),
			zap.String("op", op),
		)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// parseIDParam extracts the reading id or responds with 400
func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// mutationContext keeps a write going when the client disconnects mid-request
func mutationContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func details(list []models.BookReading) ([]viewmodel.Detail, error) {
	result := make([]viewmodel.Detail, 0, len(list))
	for _, r := range list {
		d, err := viewmodel.NewDetail(r)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

// listActive returns active readings
// GET /api/readings
func (s *Server) listActive(c *gin.Context) {
	list, err := s.screens.Main().Books(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "list readings")
		return
	}
	result, err := details(list)
	if err != nil {
		s.respondError(c, err, "list readings")
		return
	}
	c.JSON(http.StatusOK, result)
}

// listTrashed returns trashed readings
// GET /api/readings/trash
func (s *Server) listTrashed(c *gin.Context) {
	list, err := s.screens.Trash().Books(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "list trash")
		return
	}
	result, err := details(list)
	if err != nil {
		s.respondError(c, err, "list trash")
		return
	}
	c.JSON(http.StatusOK, result)
}

// get returns one reading with its completion
// GET /api/readings/:id
func (s *Server) get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	d, err := s.screens.Upsert().Detail(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, "get reading")
		return
	}
	c.JSON(http.StatusOK, d)
}

// create adds a new book
// POST /api/readings
func (s *Server) create(c *gin.Context) {
	var in tracker.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := s.screens.Upsert().Create(mutationContext(c), in)
	if err != nil {
		s.respondError(c, err, "create reading")
		return
	}

	d, err := viewmodel.NewDetail(created)
	if err != nil {
		s.respondError(c, err, "create reading")
		return
	}
	c.JSON(http.StatusCreated, d)
}

// update edits a reading
// PUT /api/readings/:id
func (s *Server) update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var in tracker.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	updated, err := s.screens.Upsert().Edit(mutationContext(c), id, in)
	if err != nil {
		s.respondError(c, err, "update reading")
		return
	}

	d, err := viewmodel.NewDetail(updated)
	if err != nil {
		s.respondError(c, err, "update reading")
		return
	}
	c.JSON(http.StatusOK, d)
}

// addProgress records newly read pages
// POST /api/readings/:id/progress
func (s *Server) addProgress(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "pages is required"})
		return
	}

	progress, err := s.screens.Upsert().AddPages(mutationContext(c), id, *req.Pages)
	if err != nil {
		s.respondError(c, err, "add progress")
		return
	}
	c.JSON(http.StatusOK, progress)
}

// moveToTrash soft-deletes a reading
// DELETE /api/readings/:id
func (s *Server) moveToTrash(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.screens.Upsert().MoveToTrash(mutationContext(c), id); err != nil {
		s.respondError(c, err, "move reading to trash")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Reading moved to trash"})
}

// restore takes a reading out of the trash
// POST /api/readings/:id/restore
func (s *Server) restore(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.screens.Trash().Restore(mutationContext(c), id); err != nil {
		s.respondError(c, err, "restore reading")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Reading restored"})
}

// purge deletes a reading permanently
// DELETE /api/readings/:id/permanent
func (s *Server) purge(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.screens.Trash().DeletePermanently(mutationContext(c), id); err != nil {
		s.respondError(c, err, "purge reading")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Reading permanently deleted"})
}

// watch streams a reading as server-sent events until the client leaves.
// A "deleted" event is sent and the stream ends once the reading is purged.
// GET /api/readings/:id/watch
func (s *Server) watch(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	screen := s.screens.Upsert()

	if _, err := screen.Get(ctx, id); err != nil {
		s.respondError(c, err, "watch reading")
		return
	}

	updates := screen.Watch(ctx, id)

	c.Stream(func(w io.Writer) bool {
		select {
		case r, ok := <-updates:
			if !ok {
				return false
			}
			if r == nil {
				c.SSEvent("deleted", gin.H{"reading_id": id})
				return false
			}
			d, err := viewmodel.NewDetail(*r)
			if err != nil {
				s.logger.Warn("Skipping invalid reading in stream", zap.Error(err), zap.Int64("reading_id", id))
				return true
			}
			c.SSEvent("reading", d)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
