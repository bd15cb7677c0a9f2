package webapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"melodix-server-go/internal/domain/auth"
	"melodix-server-go/internal/domain/auth/model"
	httptransport "melodix-server-go/internal/transport/http"
)

// Service exposes the credential flows over HTTP.
type Service struct {
	auth   *auth.Service
	logger model.Logger
}

// NewService builds the web API service.
func NewService(authService *auth.Service, logger model.Logger) *Service {
	return &Service{
		auth:   authService,
		logger: logger,
	}
}

// RegisterRoutes attaches the public and secured auth endpoints.
func (s *Service) RegisterRoutes(api, secured *gin.RouterGroup) {
	group := api.Group("/auth")
	group.POST("/register", s.handleRegister)
	group.POST("/login", s.handleLogin)
	group.POST("/forgot-password", s.handleForgotPassword)
	group.POST("/reset-password", s.handleResetPassword)

	authed := secured.Group("/auth")
	authed.POST("/logout", s.handleLogout)
	authed.POST("/logout-all", s.handleLogoutAll)
	authed.GET("/me", s.handleCurrentUser)
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	FullName string `json:"full_name" binding:"omitempty,max=100"`
}

func (s *Service) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid registration payload")
		return
	}

	result, err := s.auth.Register(c.Request.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusCreated, result, "registered")
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *Service) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid login payload")
		return
	}

	result, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, result, "logged in")
}

type logoutRequest struct {
	SessionID string `json:"session_id" binding:"omitempty,uuid"`
}

func (s *Service) handleLogout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)
	if req.SessionID == "" {
		req.SessionID = c.GetString(httptransport.ContextSessionID)
	}

	token := c.GetString(httptransport.ContextToken)
	if err := s.auth.Logout(c.Request.Context(), token, req.SessionID); err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, nil, "logged out")
}

func (s *Service) handleLogoutAll(c *gin.Context) {
	claims, ok := httptransport.ClaimsFromContext(c)
	if !ok {
		httptransport.RespondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	token := c.GetString(httptransport.ContextToken)
	closed, err := s.auth.LogoutAll(c.Request.Context(), claims.UserID, token)
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{"sessions_closed": closed}, "logged out everywhere")
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (s *Service) handleForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid email")
		return
	}

	if err := s.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		// Infrastructure failures only; the generic acknowledgment below is
		// what every successful path returns regardless of email existence.
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, nil, auth.MsgResetAck)
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

func (s *Service) handleResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid reset payload")
		return
	}

	if err := s.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, nil, "password has been reset")
}

func (s *Service) handleCurrentUser(c *gin.Context) {
	claims, ok := httptransport.ClaimsFromContext(c)
	if !ok {
		httptransport.RespondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	view, err := s.auth.ResolveCurrentUser(c.Request.Context(), claims)
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, view, "")
}
