package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blogboard/internal/auth"
	"blogboard/internal/metrics"
	"blogboard/internal/service"
	"blogboard/internal/upload"
)

// Options carries presentation settings for Handler.
type Options struct {
	CookieSecure bool
	// UploadsDir is served under UploadsPath when set (local storage backend).
	UploadsDir  string
	UploadsPath string
	Logger      *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users        service.UserService
	blogs        service.BlogService
	tokens       *auth.TokenService
	uploads      *upload.Manager
	cookieSecure bool
	uploadsDir   string
	uploadsPath  string
	logger       *logrus.Logger
}

func NewHandler(users service.UserService, blogs service.BlogService, tokens *auth.TokenService, uploads *upload.Manager, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.UploadsPath == "" {
		opts.UploadsPath = "/uploads"
	}
	return &Handler{
		users:        users,
		blogs:        blogs,
		tokens:       tokens,
		uploads:      uploads,
		cookieSecure: opts.CookieSecure,
		uploadsDir:   opts.UploadsDir,
		uploadsPath:  opts.UploadsPath,
		logger:       opts.Logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestLogger(h.logger))
	router.SetHTMLTemplate(templates)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	if h.uploadsDir != "" {
		router.Static(h.uploadsPath, h.uploadsDir)
	}

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/login")
	})
	router.GET("/signup", h.signupPage)
	router.POST("/signup", h.signup)
	router.GET("/login", h.loginPage)
	router.POST("/login", h.login)
	router.GET("/logout", h.logout)

	session := router.Group("/", h.requireSession())
	{
		session.GET("/dashboard", h.dashboard)
		session.GET("/blogs", h.allBlogs)

		blog := session.Group("/blog")
		blog.POST("/create", h.createBlog)
		blog.GET("/edit/:id", h.editBlog)
		blog.POST("/update/:id", h.updateBlog)
		blog.GET("/delete/:id", h.deleteBlog)
		blog.GET("/view/:id", h.viewBlog)
		blog.POST("/comment/:id", h.addComment)
		blog.POST("/reply/:id/:comment", h.addReply)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request")
	}
}
