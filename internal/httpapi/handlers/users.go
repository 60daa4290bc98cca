package handlers

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/klerio/helpdesk/internal/auth"
	"github.com/klerio/helpdesk/internal/common"
	"github.com/klerio/helpdesk/internal/email"
	"github.com/klerio/helpdesk/internal/httpapi/middleware"
	"github.com/klerio/helpdesk/internal/models"
)

const (
	captchaTTL       = 10 * time.Minute
	loginWindow      = 15 * time.Minute
	maxLoginFailures = 10
	tokenTTL         = 24 * time.Hour
)

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

func randomCaptcha6() (string, error) {
	const digits = "0123456789"
	out := make([]byte, 6)
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		out[i] = digits[n.Int64()]
	}
	return string(out), nil
}

type sendCaptchaReq struct {
	Email string `json:"email" binding:"required"`
}

func (h *Handler) SendCaptcha(c *gin.Context) {
	var req sendCaptchaReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	code, err := randomCaptcha6()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to generate captcha")
		return
	}
	if err := h.Redis.SetCaptcha(c.Request.Context(), req.Email, code, captchaTTL); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "redis error")
		return
	}

	go func(to, code string) {
		subject := "Your Helpdesk verification code"
		body := "Hello,\n\nYour verification code is: " + code + "\n\nIt expires in 10 minutes.\n"
		_ = email.SendText(h.SMTPSetting, to, subject, body)
	}(req.Email, code)

	common.OK(c, gin.H{"sent": true})
}

type registerReq struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Captcha  string `json:"captcha"`
	Password string `json:"password"`
}

func (h *Handler) checkCaptcha(c *gin.Context, emailAddr, captcha string) bool {
	code, err := h.Redis.GetCaptcha(c.Request.Context(), emailAddr)
	if err != nil {
		if err == redis.Nil {
			common.Fail(c, http.StatusBadRequest, 10020, "captcha expired or not found")
			return false
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "redis error")
		return false
	}
	if code != captcha {
		common.Fail(c, http.StatusBadRequest, 10021, "invalid captcha")
		return false
	}
	_ = h.Redis.DeleteCaptcha(c.Request.Context(), emailAddr)
	return true
}

// CreateUser registers an admin/staff account.
func (h *Handler) CreateUser(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" || req.Captcha == "" || req.FullName == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "email, full_name, captcha and password required")
		return
	}
	if !h.checkCaptcha(c, req.Email, req.Captcha) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to hash password")
		return
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		common.Fail(c, http.StatusBadRequest, 10003, "failed to create user (maybe email already exists)")
		return
	}

	token, err := auth.SignJWT(user.ID, 0, auth.RoleAdmin, h.Cfg.JWTSecret, tokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	go func(to, name string) {
		subject := "Welcome to Helpdesk - Your staff account is ready"
		body := "Hello " + name + ",\n\n" +
			"Your Helpdesk staff account has been created.\n\n" +
			"If you did not request this account, please contact support immediately.\n\n" +
			"Best regards,\nHelpdesk\n"
		_ = email.SendText(h.SMTPSetting, to, subject, body)
	}(user.Email, user.FullName)

	common.OK(c, gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
		"token":     token,
	})
}

// CreateClient registers a customer account.
func (h *Handler) CreateClient(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" || req.Captcha == "" || req.FullName == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "email, full_name, captcha and password required")
		return
	}
	if !h.checkCaptcha(c, req.Email, req.Captcha) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to hash password")
		return
	}

	client := models.Client{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
	}
	if err := h.DB.Create(&client).Error; err != nil {
		common.Fail(c, http.StatusBadRequest, 10003, "failed to create client (maybe email already exists)")
		return
	}

	token, err := auth.SignJWT(client.ID, client.ID, auth.RoleClient, h.Cfg.JWTSecret, tokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"id":        client.ID,
		"email":     client.Email,
		"full_name": client.FullName,
		"token":     token,
	})
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	if n, err := h.Redis.IncrLoginAttempts(c.Request.Context(), req.Email, loginWindow); err == nil && n > maxLoginFailures {
		common.Fail(c, http.StatusUnauthorized, 40110, "too many login attempts, try again later")
		return
	}

	role := req.Role
	if role == "" {
		role = auth.RoleClient
	}

	var (
		id       int64
		clientID int64
		hash     string
		fullName string
	)
	switch role {
	case auth.RoleAdmin:
		var u models.User
		if err := h.DB.Where("email = ?", req.Email).First(&u).Error; err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid credentials")
			return
		}
		id, hash, fullName = u.ID, u.PasswordHash, u.FullName
	case auth.RoleClient:
		var cl models.Client
		if err := h.DB.Where("email = ?", req.Email).First(&cl).Error; err != nil {
			common.Fail(c, http.StatusUnauthorized, 40102, "invalid credentials")
			return
		}
		id, clientID, hash, fullName = cl.ID, cl.ID, cl.PasswordHash, cl.FullName
	default:
		common.Fail(c, http.StatusBadRequest, 10005, "unknown role")
		return
	}

	if !auth.CheckPassword(hash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40102, "invalid credentials")
		return
	}
	_ = h.Redis.ResetLoginAttempts(c.Request.Context(), req.Email)

	token, err := auth.SignJWT(id, clientID, role, h.Cfg.JWTSecret, tokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	c.SetCookie("token", token, int(tokenTTL.Seconds()), "/", "", false, true)
	common.OK(c, gin.H{
		"id":        id,
		"full_name": fullName,
		"role":      role,
		"token":     token,
	})
}

func (h *Handler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	common.OK(c, gin.H{
		"id":        claims.UserID,
		"client_id": claims.ClientID,
		"role":      claims.Role,
	})
}

func (h *Handler) GetUserByID(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid user id")
		return
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40401, "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	common.OK(c, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"full_name":  user.FullName,
		"created_at": user.CreatedAt,
	})
}
