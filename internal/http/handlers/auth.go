package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"baeumcoop.kr/app/internal/http/middleware"
	"baeumcoop.kr/app/internal/http/validation"
	"baeumcoop.kr/app/internal/modules/users"
	"baeumcoop.kr/app/internal/shared/apperr"
)

type AuthHandler struct {
	Users   *users.Service
	SessCfg middleware.SessionCfg
}

func NewAuthHandler(svc *users.Service, sessCfg middleware.SessionCfg) *AuthHandler {
	return &AuthHandler{Users: svc, SessCfg: sessCfg}
}

type registerInput struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var in registerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs := validation.FromBindError(err, &in)
		middleware.Fail(c, apperr.InvalidErr("입력값을 확인해 주세요.", errs))
		return
	}

	u, err := h.Users.Register(c.Request.Context(), users.RegisterInput{
		Email:    in.Email,
		Password: in.Password,
		Name:     in.Name,
		Phone:    in.Phone,
	})
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			middleware.Fail(c, apperr.ConflictErr("이미 가입된 이메일입니다."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	h.startSession(c, u)
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs := validation.FromBindError(err, &in)
		middleware.Fail(c, apperr.InvalidErr("입력값을 확인해 주세요.", errs))
		return
	}

	u, err := h.Users.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			middleware.Fail(c, apperr.UnauthorizedErr("이메일 또는 비밀번호가 올바르지 않습니다."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	h.startSession(c, u)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if sessVal, ok := c.Get("session"); ok {
		if sess, ok := sessVal.(*middleware.Session); ok {
			_ = middleware.DeleteSession(h.SessCfg, sess.ID)
		}
	}
	c.SetCookie(h.SessCfg.CookieName, "", -1, "/", "", h.SessCfg.Secure, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("로그인이 필요합니다."))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
		"role":  u.Role,
	})
}

func (h *AuthHandler) startSession(c *gin.Context, u users.User) {
	sess, err := middleware.CreateSession(h.SessCfg, u.ID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.SetCookie(h.SessCfg.CookieName, sess.ID, int(h.SessCfg.TTL.Seconds()), "/", "", h.SessCfg.Secure, true)
	c.JSON(http.StatusOK, gin.H{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
		"role":  u.Role,
	})
}
