package main

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Tharun-Kumar-228/portfolio/internal/board"
	"github.com/Tharun-Kumar-228/portfolio/internal/config"
	"github.com/Tharun-Kumar-228/portfolio/internal/content"
	"github.com/Tharun-Kumar-228/portfolio/internal/logging"
	"github.com/Tharun-Kumar-228/portfolio/internal/mailer"
	"github.com/Tharun-Kumar-228/portfolio/internal/profilestats"
	"github.com/Tharun-Kumar-228/portfolio/internal/storage"
	"github.com/Tharun-Kumar-228/portfolio/internal/telemetry"
)

//go:embed templates/*.html
var templateFS embed.FS

const themeCookie = "portfolio-theme"

// sections that can be fetched on their own with /sections/:name.
var sections = map[string]bool{
	"about":          true,
	"skills":         true,
	"projects":       true,
	"certifications": true,
	"achievements":   true,
	"education":      true,
	"resume":         true,
	"contact":        true,
}

type application struct {
	cfg       config.Config
	log       logrus.FieldLogger
	portfolio *content.Portfolio
	store     *storage.Store
	board     *board.Board
	sender    mailer.Sender
	templates *template.Template

	contactTo string
	salt      string
	sessions  *adminSessions
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "portfolio", cfg.OTel.Endpoint, cfg.OTel.Enabled)
	if err != nil {
		log.WithError(err).Fatal("set up tracing")
	}

	portfolio, err := content.Load(cfg.ContentPath)
	if err != nil {
		log.WithError(err).Fatal("load content")
	}

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer store.Close()

	agg := profilestats.NewDefault(
		profilestats.HTTPConfig{
			GitHubBaseURL:     cfg.Stats.GitHubURL,
			GitHubToken:       cfg.Stats.GitHubToken,
			LeetCodeBaseURL:   cfg.Stats.LeetCodeURL,
			CodeforcesBaseURL: cfg.Stats.CodeforcesURL,
		},
		profilestats.WithTimeout(cfg.Stats.FetchTimeout),
		profilestats.WithConcurrency(cfg.Stats.Concurrency),
		profilestats.WithLogger(log.WithField("component", "profilestats")),
	)

	boardOpts := []board.Option{
		board.WithPeriod(cfg.Stats.RefreshPeriod),
		board.WithRecorder(store),
		board.WithLogger(log.WithField("component", "board")),
	}
	if cfg.Redis.URL != "" {
		cache, err := board.NewRedisCache(cfg.Redis.URL, cfg.Redis.SnapshotTTL)
		if err != nil {
			log.WithError(err).Fatal("configure redis")
		}
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := cache.Ping(pingCtx); err != nil {
			log.WithError(err).Warn("redis unreachable, profile statistics will not be shared")
		} else {
			boardOpts = append(boardOpts, board.WithCache(cache))
		}
		cancel()
		defer cache.Close()
	}
	stats := board.New(agg, portfolio.Descriptors(), boardOpts...)

	app, err := newApplication(cfg, log, portfolio, store, stats, mailer.FromConfig(cfg))
	if err != nil {
		log.WithError(err).Fatal("initialize application")
	}

	stats.Start(ctx)
	go app.runMaintenance(ctx)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("portfolio listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	stats.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.WithError(err).Warn("flush traces")
	}
}

func newApplication(cfg config.Config, log logrus.FieldLogger, portfolio *content.Portfolio,
	store *storage.Store, stats *board.Board, sender mailer.Sender) (*application, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	salt, err := generateAdminToken()
	if err != nil {
		return nil, err
	}
	sessions, err := newAdminSessions(cfg.Admin.Secret)
	if err != nil {
		return nil, err
	}

	contactTo := cfg.ContactEmail
	if contactTo == "" {
		contactTo = portfolio.ContactEmail()
	}

	return &application{
		cfg:       cfg,
		log:       log,
		portfolio: portfolio,
		store:     store,
		board:     stats,
		sender:    sender,
		templates: tmpl,
		contactTo: contactTo,
		salt:      salt,
		sessions:  sessions,
	}, nil
}

func (app *application) routes() *gin.Engine {
	r := gin.New()
	r.Use(logging.GinMiddleware(app.log, "/static/*filepath", "/coding-profiles", "/healthz"), gin.Recovery())
	r.SetHTMLTemplate(app.templates)

	r.Static("/static", app.cfg.StaticDir)
	r.Use(app.visitorTrackingMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", app.page(c))
	})

	r.GET("/sections/:name", func(c *gin.Context) {
		name := c.Param("name")
		if !sections[name] {
			c.String(http.StatusNotFound, "unknown section")
			return
		}
		c.HTML(http.StatusOK, "section-"+name, app.page(c))
	})

	// HTMX fragment; it keeps polling itself until the statistics settle.
	r.GET("/coding-profiles", func(c *gin.Context) {
		c.HTML(http.StatusOK, "coding-profiles", app.page(c))
	})

	r.GET("/api/profile-stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, app.board.Snapshot())
	})

	r.GET("/contact-form", func(c *gin.Context) {
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"title": "Contact Me",
		})
	})

	r.POST("/contact", app.handleContact)

	r.POST("/theme", func(c *gin.Context) {
		next := "dark"
		if currentTheme(c) == "dark" {
			next = "light"
		}
		c.SetCookie(themeCookie, next, 365*24*3600, "/", "", false, false)
		c.Header("X-Theme", next)

		if c.GetHeader("HX-Request") == "true" {
			c.HTML(http.StatusOK, "theme-toggle", gin.H{"Theme": next})
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
	})

	r.GET("/healthz", func(c *gin.Context) {
		if err := app.store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	app.setupAdminRoutes(r)
	return r
}

// currentTheme is the theme the browser is showing: the cookie when set, else the
// value the page posted.
func currentTheme(c *gin.Context) string {
	if theme, err := c.Cookie(themeCookie); err == nil && (theme == "light" || theme == "dark") {
		return theme
	}
	if c.PostForm("current") == "dark" {
		return "dark"
	}
	return "light"
}

type pageData struct {
	Portfolio *content.Portfolio
	Theme     string
	Profiles  profilesView
}

type profilesView struct {
	Loading   bool
	SettledAt *time.Time
	Cards     []profileCard
}

type profileCard struct {
	content.CodingProfile
	Stats []profilestats.StatisticEntry
}

func (app *application) page(c *gin.Context) pageData {
	theme, _ := c.Cookie(themeCookie)
	if theme != "light" && theme != "dark" {
		theme = ""
	}
	return pageData{
		Portfolio: app.portfolio,
		Theme:     theme,
		Profiles:  app.profiles(),
	}
}

// profiles pairs each configured profile with its statistics. Cards carry no
// numbers until the board has settled.
func (app *application) profiles() profilesView {
	snap := app.board.Snapshot()
	view := profilesView{Loading: snap.Loading, SettledAt: snap.SettledAt}
	for _, cp := range app.portfolio.CodingProfiles {
		card := profileCard{CodingProfile: cp}
		if !snap.Loading {
			card.Stats = snap.Statistics[cp.ID]
		}
		view.Cards = append(view.Cards, card)
	}
	return view
}
