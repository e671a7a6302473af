package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/api"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/mail"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type registerRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Name     string  `json:"name" binding:"required"`
	Password string  `json:"password" binding:"required,min=8"`
	Position *string `json:"position" binding:"omitempty,position"`
}

// HandleRegister creates a password-based account and sends the welcome
// mail. New accounts always start as ordinary users.
func HandleRegister(db *gorm.DB, mailer *mail.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		email := models.NormalizeEmail(req.Email)
		var existing models.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			api.Error(c, http.StatusConflict, "an account with this email already exists")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to create account")
			return
		}

		user := models.User{
			Email:        email,
			Name:         req.Name,
			PasswordHash: string(hash),
			Role:         models.RoleUser,
			Position:     req.Position,
			Active:       true,
		}
		if err := db.Create(&user).Error; err != nil {
			api.Error(c, http.StatusInternalServerError, "failed to create account")
			return
		}

		if err := mailer.SendWelcome(user.Email, user.Name); err != nil {
			slog.Warn("welcome mail failed", "email", user.Email, "error", err)
		}

		startSession(c, &user)
		api.Created(c, IdentityOf(&user))
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// HandleLogin authenticates with email and password.
func HandleLogin(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.Error(c, http.StatusBadRequest, err.Error())
			return
		}

		var user models.User
		err := db.Where("email = ?", models.NormalizeEmail(req.Email)).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || user.PasswordHash == "" {
			api.Error(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		if err != nil {
			api.Error(c, http.StatusInternalServerError, "login failed")
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			api.Error(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		if !user.Active {
			api.Error(c, http.StatusForbidden, "account is deactivated")
			return
		}

		now := time.Now()
		db.Model(&user).Update("last_login_at", now)

		startSession(c, &user)
		api.Success(c, IdentityOf(&user))
	}
}

// HandleOAuthLogin initiates the Google OAuth flow
func HandleOAuthLogin(c *gin.Context) {
	// Gothic requires the "provider" query parameter
	q := c.Request.URL.Query()
	q.Add("provider", "google")
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// HandleOAuthCallback completes the OAuth flow, upserts the user and the
// encrypted identity record, and stores the session.
func HandleOAuthCallback(db *gorm.DB, mailer *mail.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		q.Add("provider", "google")
		c.Request.URL.RawQuery = q.Encode()

		gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
		if err != nil {
			slog.Error("oauth completion failed", "error", err)
			c.Redirect(http.StatusFound, "/login?error=auth_failed")
			return
		}

		now := time.Now()
		var user models.User
		result := db.Where("email = ?", models.NormalizeEmail(gothUser.Email)).First(&user)
		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			user = models.User{
				Email:       gothUser.Email,
				Name:        gothUser.Name,
				Avatar:      gothUser.AvatarURL,
				Role:        models.RoleUser,
				Active:      true,
				LastLoginAt: &now,
			}
			if err := db.Create(&user).Error; err != nil {
				slog.Error("oauth user create failed", "error", err)
				c.Redirect(http.StatusFound, "/login?error=auth_failed")
				return
			}
			if err := mailer.SendWelcome(user.Email, user.Name); err != nil {
				slog.Warn("welcome mail failed", "email", user.Email, "error", err)
			}
		case result.Error == nil:
			db.Model(&user).Updates(map[string]interface{}{
				"name":          gothUser.Name,
				"avatar":        gothUser.AvatarURL,
				"last_login_at": now,
			})
		default:
			slog.Error("oauth user lookup failed", "error", result.Error)
			c.Redirect(http.StatusFound, "/login?error=auth_failed")
			return
		}

		if !user.Active {
			c.Redirect(http.StatusFound, "/login?error=account_deactivated")
			return
		}

		upsertIdentity(db, &user, gothUser.UserID, gothUser.AccessToken, gothUser.RefreshToken, gothUser.ExpiresAt)

		startSession(c, &user)
		slog.Info("user authenticated", "user_id", user.ID, "email", user.Email)
		c.Redirect(http.StatusFound, "/dashboard")
	}
}

// HandleLogout clears the session.
func HandleLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		slog.Error("session clear failed", "error", err)
	}
	api.Message(c, "logged out")
}

// HandleMe returns the caller's identity.
func HandleMe(c *gin.Context) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		api.Error(c, http.StatusUnauthorized, "authentication required")
		return
	}
	api.Success(c, identity)
}

func startSession(c *gin.Context, user *models.User) {
	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	if err := session.Save(); err != nil {
		slog.Error("session save failed", "user_id", user.ID, "error", err)
	}
}

// upsertIdentity keeps the AuthIdentity row (with encrypted tokens) in
// sync after each OAuth login.
func upsertIdentity(db *gorm.DB, user *models.User, providerUserID, accessToken, refreshToken string, expiry time.Time) {
	var identity models.AuthIdentity
	err := db.Where("provider = ? AND provider_user_id = ?", "google", providerUserID).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		identity = models.AuthIdentity{
			UserID:         user.ID,
			Provider:       "google",
			ProviderUserID: providerUserID,
			AccessToken:    accessToken,
			RefreshToken:   refreshToken,
		}
		if !expiry.IsZero() {
			identity.TokenExpiry = &expiry
		}
		if err := db.Create(&identity).Error; err != nil {
			slog.Warn("auth identity create failed", "user_id", user.ID, "error", err)
		}
		return
	}
	if err != nil {
		slog.Warn("auth identity lookup failed", "user_id", user.ID, "error", err)
		return
	}

	identity.AccessToken = accessToken
	if refreshToken != "" {
		identity.RefreshToken = refreshToken
	}
	if !expiry.IsZero() {
		identity.TokenExpiry = &expiry
	}
	if err := db.Save(&identity).Error; err != nil {
		slog.Warn("auth identity update failed", "user_id", user.ID, "error", err)
	}
}
