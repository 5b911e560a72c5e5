package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"unicode"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"tourbook/middleware"
	"tourbook/models"
	"tourbook/repository"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
)

func ValidateUsername(username string) bool {
	if len(username) < 4 || len(username) > 32 {
		return false
	}
	return usernamePattern.MatchString(username)
}

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePassword wants 8 to 72 bytes (bcrypt's limit) mixing upper and
// lower case letters and digits, without whitespace.
func ValidatePassword(password string) bool {
	if len(password) < 8 || len(password) > 72 {
		return false
	}

	var isUpper, isLower, isNumber, isSpace bool
	for _, s := range password {
		switch {
		case unicode.IsSpace(s):
			isSpace = true
		case unicode.IsUpper(s):
			isUpper = true
		case unicode.IsLower(s):
			isLower = true
		case unicode.IsDigit(s):
			isNumber = true
		}
	}
	return isUpper && isLower && isNumber && !isSpace
}

type session struct {
	Token     string `json:"token"`
	UserID    uint   `json:"userID"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (h *Handler) RegisterHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid request",
			"error":   err.Error(),
		})
		return
	}

	switch {
	case !ValidateUsername(req.Username):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid username"})
		return
	case !ValidateEmail(req.Email):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid email"})
		return
	case !ValidatePassword(req.Password):
		c.JSON(http.StatusBadRequest, gin.H{"message": "password too weak"})
		return
	}

	ctx := c.Request.Context()
	usernameTaken, emailTaken, err := h.Users.Taken(ctx, req.Username, req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "could not check account",
			"error":   err.Error(),
		})
		return
	}
	if usernameTaken {
		c.JSON(http.StatusConflict, gin.H{"message": "username already registered"})
		return
	}
	if emailTaken {
		c.JSON(http.StatusConflict, gin.H{"message": "email already registered"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "could not hash password",
			"error":   err.Error(),
		})
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     models.RoleUser,
	}
	if err := h.Users.Create(ctx, &user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "could not create account",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "registered",
		"username": user.Username,
	})
}

// LoginHandler answers with a session object and also sets the bearer token
// on the Authorization header.
func (h *Handler) LoginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid request",
			"error":   err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.ByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "wrong username or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "could not load account",
			"error":   err.Error(),
		})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "wrong username or password"})
		return
	}

	token, exp, err := h.Tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "could not sign token",
			"error":   err.Error(),
		})
		return
	}
	if err := h.Users.SaveToken(ctx, token, user.ID, user.Role, exp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "could not store session",
			"error":   err.Error(),
		})
		return
	}

	h.log().Info("login", slog.Uint64("user", uint64(user.ID)), slog.String("role", user.Role))
	c.Header("Authorization", "Bearer "+token)
	c.JSON(http.StatusOK, gin.H{
		"message": "logged in",
		"session": session{
			Token:     token,
			UserID:    user.ID,
			Username:  user.Username,
			Role:      user.Role,
			ExpiresAt: exp.Unix(),
		},
	})
}

func (h *Handler) LogOutHandler(c *gin.Context) {
	token := c.GetString(middleware.KeyToken)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "no session"})
		return
	}

	err := h.Users.RevokeToken(c.Request.Context(), token)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "session already ended"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "could not end session",
			"error":   err.Error(),
		})
		return
	}

	c.Header("Authorization", "")
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// GetSessionHandler reports the caller's role; guests get role "guest".
func (h *Handler) GetSessionHandler(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	c.JSON(http.StatusOK, gin.H{
		"authenticated": ok,
		"userID":        userID,
		"role":          middleware.Role(c),
	})
}

func (h *Handler) GetUserProfileHandler(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	user, err := h.Users.ByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "could not load profile",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "ok",
		"user":    user,
	})
}

// UpdateUserProfileHandler needs the current password. Nil fields are left
// alone; empty strings clear name and phone.
func (h *Handler) UpdateUserProfileHandler(c *gin.Context) {
	var req struct {
		OldPassword string  `json:"oldPassword" binding:"required"`
		NewPassword string  `json:"newPassword"`
		Email       string  `json:"email"`
		Name        *string `json:"name"`
		Phone       *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "invalid request",
			"error":   err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	userID, _ := middleware.UserID(c)
	user, err := h.Users.ByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "could not load profile",
			"error":   err.Error(),
		})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "wrong password"})
		return
	}

	if req.NewPassword != "" {
		if !ValidatePassword(req.NewPassword) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "password too weak"})
			return
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "could not hash password",
				"error":   err.Error(),
			})
			return
		}
		user.Password = string(hashedPassword)
	}
	if req.Email != "" {
		if !ValidateEmail(req.Email) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid email"})
			return
		}
		user.Email = req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}

	if err := h.Users.Update(ctx, &user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "could not save profile",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}
