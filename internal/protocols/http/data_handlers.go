package http

import (
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"forumhub/internal/events"
	"forumhub/internal/forum"
	"forumhub/internal/store"
	"forumhub/pkg/logger"
	"forumhub/pkg/models"
)

const (
	maxBodyBytes = 1 << 20
	pushSuffix   = "/push"
)

// readData handles GET /data/*path[?orderBy=field]
func (s *Server) readData(c *gin.Context) {
	path := dataPath(c)

	var opts []store.QueryOption
	if orderBy := c.Query("orderBy"); orderBy != "" {
		opts = append(opts, store.OrderByChild(orderBy))
	}

	snap, err := s.store.Read(c.Request.Context(), path, opts...)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.DataResponse{Path: snap.Path(), Exists: snap.Exists()}
	if resp.Exists {
		resp.Value = snap.Raw()
		if len(opts) > 0 {
			resp.Order = snap.Order()
		}
	}

	c.JSON(200, models.APIResponse{
		Success:   true,
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// writeData handles PUT /data/*path; a null body deletes the subtree
func (s *Server) writeData(c *gin.Context) {
	path := dataPath(c)
	userID, _ := GetUserID(c)

	segs, err := store.SplitPath(path)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := authorizeWrite(userID, [][]string{segs}); err != nil {
		respondError(c, err)
		return
	}

	body, err := readJSONBody(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := s.store.Write(c.Request.Context(), path, body); err != nil {
		respondError(c, err)
		return
	}

	s.publish(models.ChangeEvent{Path: path, Op: events.OpWrite, UserID: userID})
	c.JSON(200, models.APIResponse{
		Success:   true,
		Message:   "written",
		Timestamp: time.Now(),
	})
}

// updateData handles PATCH /data/*path with a map of relative paths to values
func (s *Server) updateData(c *gin.Context) {
	path := dataPath(c)
	userID, _ := GetUserID(c)

	body, err := readJSONBody(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		respondError(c, models.NewHTTPError(models.ErrCodeBadRequest, "body must be an object of field paths", 400, models.ErrInvalidInput))
		return
	}

	base, err := store.SplitPath(path)
	if err != nil {
		respondError(c, err)
		return
	}
	fields := make(store.Fields, len(raw))
	for k, v := range raw {
		fields[k] = v
	}
	paths, _, err := store.AbsoluteFields(base, fields)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := authorizeWrite(userID, paths); err != nil {
		respondError(c, err)
		return
	}

	if err := s.store.Update(c.Request.Context(), path, fields); err != nil {
		respondError(c, err)
		return
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s.publish(models.ChangeEvent{Path: path, Op: events.OpUpdate, Fields: keys, UserID: userID})

	c.JSON(200, models.APIResponse{
		Success:   true,
		Message:   "updated",
		Timestamp: time.Now(),
	})
}

// pushKey handles POST /data/*path/push and returns a fresh child key
func (s *Server) pushKey(c *gin.Context) {
	path := dataPath(c)
	if !strings.HasSuffix(path, pushSuffix) {
		respondError(c, models.NewHTTPError(models.ErrCodeNotFound, "unknown data action", 404, models.ErrNotFound))
		return
	}
	path = strings.TrimSuffix(path, pushSuffix)
	if _, err := store.SplitPath(path); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, models.APIResponse{
		Success:   true,
		Data:      models.PushKeyResponse{Key: s.store.PushKey(path)},
		Timestamp: time.Now(),
	})
}

func (s *Server) publish(event models.ChangeEvent) {
	event.Timestamp = s.now()
	if err := s.events.Publish(event); err != nil {
		logger.Warnf("Failed to publish change for %s: %v", event.Path, err)
	}
}

func dataPath(c *gin.Context) string {
	return strings.Trim(c.Param("path"), "/")
}

func readJSONBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		return nil, models.NewHTTPError(models.ErrCodeBadRequest, "failed to read body", 400, err)
	}
	if len(body) > maxBodyBytes {
		return nil, models.NewHTTPError(models.ErrCodeBadRequest, "body too large", 413, models.ErrInvalidInput)
	}
	if !json.Valid(body) {
		return nil, models.NewHTTPError(models.ErrCodeBadRequest, "body must be valid JSON", 400, models.ErrInvalidInput)
	}
	return body, nil
}

// authorizeWrite keeps profiles writable by their owner only
func authorizeWrite(userID string, paths [][]string) error {
	for _, segs := range paths {
		if segs[0] != forum.UsersPath {
			continue
		}
		if len(segs) < 2 || segs[1] != userID {
			return models.NewHTTPError(models.ErrCodeForbidden, "cannot write another user's profile", 403, models.ErrForbidden)
		}
	}
	return nil
}

// respondError writes err with the status it maps to
func respondError(c *gin.Context, err error) {
	status := models.HTTPStatus(err)
	switch {
	case errors.Is(err, store.ErrInvalidPath):
		status = 400
	case errors.Is(err, store.ErrPermissionDenied):
		status = 403
	}

	msg := err.Error()
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	} else if status == 500 {
		logger.Errorf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		msg = "internal server error"
	}

	c.AbortWithStatusJSON(status, models.APIResponse{
		Success:   false,
		Error:     msg,
		Timestamp: time.Now(),
	})
}
