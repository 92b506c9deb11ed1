package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/agronova-labs/agronova/internal/access"
	"github.com/agronova-labs/agronova/internal/actors"
	"github.com/agronova-labs/agronova/internal/identity"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gin context keys set by RequireActor.
const (
	ctxActorID   = "actor_id"
	ctxActorRole = "actor_role"
)

// RequireActor returns a middleware that validates the Bearer token and puts
// the actor's id and role on the gin context.
func RequireActor(tokens *identity.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ctxActorID, claims.ActorID)
		c.Set(ctxActorRole, access.Role(claims.Role))
		c.Next()
	}
}

// actorFromContext reads the identity placed by RequireActor.
func actorFromContext(c *gin.Context) (string, access.Role) {
	return c.GetString(ctxActorID), c.MustGet(ctxActorRole).(access.Role)
}

// AuthHandler handles actor registration and login routes.
type AuthHandler struct {
	actors *actors.Service
	tokens *identity.TokenIssuer
	logger *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(actorSvc *actors.Service, tokens *identity.TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{actors: actorSvc, tokens: tokens, logger: logger}
}

// Register mounts the auth routes on the given router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.RegisterActor)
		auth.POST("/login", h.Login)
	}
}

type registerRequest struct {
	ID          string `json:"id" binding:"required"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role" binding:"required"`
}

type loginRequest struct {
	ID       string `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterActor handles POST /auth/register.
// Admin accounts cannot be self-registered; they are provisioned by seeding.
func (h *AuthHandler) RegisterActor(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := access.ParseRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if role == access.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin accounts cannot be self-registered"})
		return
	}

	actor, err := h.actors.Register(c.Request.Context(), req.ID, req.DisplayName, req.Password, role)
	if err != nil {
		if errors.Is(err, actors.ErrDuplicateID) {
			c.JSON(http.StatusConflict, gin.H{"error": "actor id already registered"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, actor)
}

// Login handles POST /auth/login — returns a session token and the actor.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := h.actors.Login(c.Request.Context(), req.ID, req.Password)
	if err != nil {
		if errors.Is(err, actors.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid actor id or password"})
			return
		}
		h.logger.Error("login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token, err := h.tokens.Issue(actor.ID, actor.Role)
	if err != nil {
		h.logger.Error("issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "actor": actor})
}
