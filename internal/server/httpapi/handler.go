package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/chatauth/internal/common"
	"github.com/dmitrijs2005/chatauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	ProfilePic string `json:"profilePic"`
}

func (s *HTTPServer) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, "signup", common.ErrMalformedBody)
		return
	}

	session, err := s.users.Signup(c.Request.Context(), services.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.abortWithError(c, "signup", err)
		return
	}

	s.cookies.Set(c, session.Token)
	c.JSON(http.StatusCreated, session.User)
}

func (s *HTTPServer) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, "login", common.ErrMalformedBody)
		return
	}

	session, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.abortWithError(c, "login", err)
		return
	}

	s.cookies.Set(c, session.Token)
	c.JSON(http.StatusOK, session.User)
}

// Logout always succeeds, with or without a session.
func (s *HTTPServer) Logout(c *gin.Context) {
	s.cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (s *HTTPServer) UpdateProfile(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		s.abortWithError(c, "update_profile", common.ErrUnauthenticated)
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, "update_profile", common.ErrMalformedBody)
		return
	}

	updated, err := s.users.UpdateProfile(c.Request.Context(), user.ID, req.ProfilePic)
	if err != nil {
		s.abortWithError(c, "update_profile", err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Check reports the user behind the current session.
func (s *HTTPServer) Check(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		s.abortWithError(c, "check", common.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}
