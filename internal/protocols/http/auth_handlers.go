package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"forumhub/pkg/models"
)

// register handles account registration
func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, models.APIResponse{
			Success:   false,
			Error:     "invalid request body",
			Timestamp: time.Now(),
		})
		return
	}

	resp, err := s.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(201, models.APIResponse{
		Success:   true,
		Message:   "Account registered successfully",
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// login handles user authentication
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, models.APIResponse{
			Success:   false,
			Error:     "invalid request body",
			Timestamp: time.Now(),
		})
		return
	}

	if req.Email == "" || req.Password == "" {
		c.JSON(400, models.APIResponse{
			Success:   false,
			Error:     "email and password are required",
			Timestamp: time.Now(),
		})
		return
	}

	resp, err := s.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, models.APIResponse{
		Success:   true,
		Message:   "Login successful",
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// me returns the user behind the bearer token
func (s *Server) me(c *gin.Context) {
	user, ok := GetUser(c)
	if !ok {
		respondError(c, models.ErrUnauthorized)
		return
	}
	c.JSON(200, models.APIResponse{
		Success:   true,
		Data:      user,
		Timestamp: time.Now(),
	})
}
