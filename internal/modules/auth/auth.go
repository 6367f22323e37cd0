// Package auth registers users and issues identity tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/blogsphere/core/internal/middleware"
	"github.com/blogsphere/core/internal/models"
	"github.com/blogsphere/core/internal/pkg/apperr"
	"github.com/blogsphere/core/internal/pkg/response"
	"github.com/blogsphere/core/internal/pkg/validate"
	"github.com/blogsphere/core/internal/store"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = apperr.Unauthorized("Invalid credentials")

type LoginDTO struct {
	Email    string `json:"email"    binding:"required,email" label:"Email"`
	Password string `json:"password" binding:"required"       label:"Password"`
}

type RegisterDTO struct {
	Name     string `json:"name"     binding:"required,max=50" label:"Name"`
	Email    string `json:"email"    binding:"required,email"  label:"Email"`
	Password string `json:"password" binding:"required,min=6"  label:"Password"`
}

// UserView is the public shape of an account.
type UserView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func viewOf(u *models.UserModel) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// TokenSigner issues an identity token for a user id.
type TokenSigner interface {
	Sign(userID string) (string, error)
}

type Service struct {
	users  store.UserStore
	tokens TokenSigner
	cost   int
}

func NewService(users store.UserStore, tokens TokenSigner) *Service {
	return &Service{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

// Register creates a user with the default role and returns a token for it.
func (s *Service) Register(ctx context.Context, dto *RegisterDTO) (string, *models.UserModel, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Email = normalizeEmail(dto.Email)
	if err := validate.Struct(dto); err != nil {
		return "", nil, err
	}

	_, err := s.users.FindUserByEmail(ctx, dto.Email)
	if err == nil {
		return "", nil, apperr.Conflict("User already exists")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.cost)
	if err != nil {
		return "", nil, err
	}
	user := &models.UserModel{
		Base:     models.Base{ID: models.NewID()},
		Name:     dto.Name,
		Email:    dto.Email,
		Password: string(hash),
		Role:     models.RoleUser,
	}
	err = s.users.CreateUser(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		return "", nil, apperr.Conflict("User already exists")
	}
	if err != nil {
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login checks credentials. Unknown emails and wrong passwords fail the
// same way.
func (s *Service) Login(ctx context.Context, dto *LoginDTO) (string, *models.UserModel, error) {
	user, err := s.users.FindUserByEmail(ctx, normalizeEmail(dto.Email))
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, errInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)); err != nil {
		return "", nil, errInvalidCredentials
	}
	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *Service) Me(ctx context.Context, id string) (*models.UserModel, error) {
	user, err := s.users.FindUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	return user, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.GET("/me", authMW, h.me)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Error(c, validate.Translate(err))
		return
	}
	token, user, err := h.svc.Register(c.Request.Context(), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "token": token, "user": viewOf(user)})
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Error(c, validate.Translate(err))
		return
	}
	token, user, err := h.svc.Login(c.Request.Context(), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": viewOf(user)})
}

func (h *Handler) me(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	if principal == nil {
		response.Unauthorized(c, "Not authorized, no token")
		return
	}
	user, err := h.svc.Me(c.Request.Context(), principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, viewOf(user))
}
