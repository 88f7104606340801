package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/copilot-pulse/backend/pkg/response"
)

// Handler serves the operator login endpoint. There is a single operator
// account configured through the environment; no user table exists.
type Handler struct {
	jwtService   *JWTService
	username     string
	passwordHash string
	logger       *zap.Logger
}

// NewHandler creates the auth handler. An empty passwordHash disables login.
func NewHandler(jwtService *JWTService, username, passwordHash string, logger *zap.Logger) *Handler {
	return &Handler{
		jwtService:   jwtService,
		username:     username,
		passwordHash: passwordHash,
		logger:       logger,
	}
}

// RegisterRoutes mounts the auth routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login checks the operator credentials and issues a JWT.
func (h *Handler) Login(c *gin.Context) {
	if h.passwordHash == "" {
		response.NotFound(c, "login disabled")
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}
	if req.Username != h.username ||
		bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)) != nil {
		h.logger.Warn("failed login attempt", zap.String("username", req.Username))
		response.Unauthorized(c, "invalid credentials")
		return
	}
	token, err := h.jwtService.Generate(req.Username)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		response.Internal(c, "could not issue token")
		return
	}
	response.OK(c, loginResponse{Token: token})
}
