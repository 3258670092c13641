// admin.go - privacy-conscious visitor tracking and the admin area
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Tharun-Kumar-228/portfolio/internal/board"
	"github.com/Tharun-Kumar-228/portfolio/internal/storage"
)

const (
	adminCookie      = "admin_token"
	adminIssuer      = "portfolio-admin"
	adminSessionTTL  = 24 * time.Hour
	visitorRetention = 365 * 24 * time.Hour
	refreshesKept    = 50
)

var errNoSession = errors.New("no admin session")

func generateAdminToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// hashIP is stable per IP for the life of the process and cannot be
// reversed without the salt.
func (app *application) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + app.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

// adminSessions issues and checks the signed session cookie.
type adminSessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newAdminSessions(secret string) (*adminSessions, error) {
	if secret == "" {
		generated, err := generateAdminToken()
		if err != nil {
			return nil, err
		}
		secret = generated
	}
	return &adminSessions{secret: []byte(secret), ttl: adminSessionTTL, now: time.Now}, nil
}

func (s *adminSessions) issue(username string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    adminIssuer,
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// verify returns the session's username.
func (s *adminSessions) verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errNoSession
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(adminIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// adminCredentials falls back to development defaults only in gin's debug
// mode. Elsewhere an unset password disables the admin area.
func (app *application) adminCredentials() (string, string, bool) {
	username, password := app.cfg.Admin.Username, app.cfg.Admin.Password
	if gin.Mode() == gin.DebugMode {
		if username == "" {
			username = "admin"
			app.log.Warn("using default admin username, set ADMIN_USERNAME")
		}
		if password == "" {
			password = "admin123"
			app.log.Warn("using default admin password, set ADMIN_PASSWORD")
		}
	}
	if username == "" || password == "" {
		return "", "", false
	}
	return username, password, true
}

func (app *application) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(adminCookie)
		username, err := app.sessions.verify(token)
		if err != nil {
			if strings.HasPrefix(c.Request.URL.Path, "/admin/api/") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Set("admin", username)
		c.Next()
	}
}

func (app *application) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet ||
			strings.HasPrefix(path, "/static/") ||
			strings.HasPrefix(path, "/admin") ||
			strings.HasPrefix(path, "/api/") ||
			strings.HasPrefix(path, "/coding-profiles") ||
			strings.HasPrefix(path, "/healthz") ||
			strings.HasPrefix(path, "/favicon") ||
			strings.HasPrefix(path, "/privacy") {
			c.Next()
			return
		}

		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		hashed := app.hashIP(c.ClientIP())
		userAgent := c.GetHeader("User-Agent")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := app.store.RecordVisit(ctx, hashed, userAgent, path); err != nil {
				app.log.WithError(err).Warn("record visitor")
			}
		}()
		c.Next()
	}
}

// runMaintenance prunes old visitor rows and refresh history once a day.
func (app *application) runMaintenance(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		app.cleanupOldData(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (app *application) cleanupOldData(ctx context.Context) (int64, error) {
	removed, err := app.store.PruneVisitors(ctx, visitorRetention)
	if err != nil {
		app.log.WithError(err).Error("clean up old visitor data")
		return 0, err
	}
	if removed > 0 {
		app.log.WithField("removed", removed).Info("privacy cleanup removed old visitor records")
	}
	if err := app.store.PruneRefreshes(ctx, refreshesKept); err != nil {
		app.log.WithError(err).Warn("prune refresh history")
	}
	return removed, nil
}

type adminReport struct {
	*storage.AdminStats
	Profiles board.Snapshot `json:"profiles"`
}

func (app *application) report(ctx context.Context) (*adminReport, error) {
	stats, err := app.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &adminReport{AdminStats: stats, Profiles: app.board.Snapshot()}, nil
}

func (app *application) setupAdminRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title":    "Privacy Policy",
			"intro":    PrivacyIntro,
			"visitors": PrivacyVisitors,
			"dnt":      PrivacyDNT,
			"contact":  PrivacyContact,
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		log := app.log.WithField("from", app.hashIP(c.ClientIP()))

		username, password, ok := app.adminCredentials()
		if !ok {
			c.HTML(http.StatusServiceUnavailable, "admin-login.html", gin.H{
				"error": "Admin access is not configured",
			})
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(c.PostForm("username")), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(c.PostForm("password")), []byte(password)) == 1
		if !userOK || !passOK {
			log.Warn("failed admin login attempt")
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		token, err := app.sessions.issue(username)
		if err != nil {
			log.WithError(err).Error("issue admin session")
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Could not start a session",
			})
			return
		}
		c.SetCookie(adminCookie, token, int(adminSessionTTL.Seconds()), "/admin", "", false, true)
		log.Info("admin login successful")
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		app.log.WithField("from", app.hashIP(c.ClientIP())).Info("admin logout")
		c.Redirect(http.StatusFound, "/admin/login")
	})

	admin := r.Group("/admin")
	admin.Use(app.adminAuthMiddleware())

	admin.GET("/dashboard", func(c *gin.Context) {
		report, err := app.report(c.Request.Context())
		if err != nil {
			app.log.WithError(err).Error("load admin stats")
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats": report,
			"admin": c.GetString("admin"),
		})
	})

	admin.GET("/api/stats", func(c *gin.Context) {
		report, err := app.report(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	})

	admin.GET("/visitors", func(c *gin.Context) {
		visitors, err := app.store.RecentVisitors(c.Request.Context(), 200)
		if err != nil {
			app.log.WithError(err).Error("load visitors")
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load visitors",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{
			"visitors": visitors,
		})
	})

	admin.GET("/messages", func(c *gin.Context) {
		messages, err := app.store.RecentContactMessages(c.Request.Context(), 100)
		if err != nil {
			app.log.WithError(err).Error("load contact messages")
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load messages",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-messages.html", gin.H{
			"messages": messages,
		})
	})

	admin.POST("/stats/refresh", func(c *gin.Context) {
		inv := app.board.Refresh(c.Request.Context())
		app.log.WithField("invocation_id", inv.ID.String()).Info("profile statistics refresh requested")
		c.JSON(http.StatusAccepted, gin.H{
			"invocation_id": inv.ID.String(),
			"state":         inv.State().String(),
		})
	})

	admin.POST("/privacy/cleanup", func(c *gin.Context) {
		removed, err := app.cleanupOldData(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Privacy cleanup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete", "removed": removed})
	})

	admin.GET("/export/stats", func(c *gin.Context) {
		report, err := app.report(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		app.log.WithField("from", app.hashIP(c.ClientIP())).Info("admin stats exported")
		c.JSON(http.StatusOK, report)
	})
}
