package http

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fileshare/internal/service"
	"fileshare/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	files    service.FileService
	sessions *session.Manager
	logger   *logrus.Logger
}

func NewHandler(users service.UserService, files service.FileService, sessions *session.Manager, logger *logrus.Logger) *Handler {
	return &Handler{
		users:    users,
		files:    files,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	router.GET("/", h.index)
	router.GET("/search", h.searchAlias)
	router.GET("/register", h.registerForm)
	router.POST("/register", h.register)
	router.GET("/login", h.loginForm)
	router.POST("/login", h.login)
	router.GET("/logout", h.logout)
	router.GET("/upload", h.uploadForm)
	router.POST("/upload", h.upload)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
}

// requireUser is the explicit gate in front of authenticated routes. On an
// anonymous request it redirects to the login page and the caller must
// return before touching anything else.
func (h *Handler) requireUser(c *gin.Context) (session.Identity, bool) {
	ident, ok := h.sessions.Current(c.Request)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return session.Identity{}, false
	}
	return ident, true
}

func (h *Handler) index(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))

	listings, err := h.files.Browse(c.Request.Context(), q)
	if err != nil {
		h.logger.Errorf("browse catalog: %v", err)
		h.renderIndex(c, nil, q, "The catalog is temporarily unavailable")
		return
	}

	h.renderIndex(c, listings, q, popFlash(c))
}

func (h *Handler) renderIndex(c *gin.Context, listings []service.Listing, q, flash string) {
	var username string
	if ident, ok := h.sessions.Current(c.Request); ok {
		username = ident.Username
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Files":    listings,
		"Query":    q,
		"Username": username,
		"Flash":    flash,
	})
}

func (h *Handler) searchAlias(c *gin.Context) {
	q := c.Query("q")
	c.Redirect(http.StatusFound, "/?q="+url.QueryEscape(q))
}

func (h *Handler) registerForm(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{"Flash": popFlash(c)})
}

func (h *Handler) register(c *gin.Context) {
	username := c.PostForm("username")
	email := c.PostForm("email")
	password := c.PostForm("password")

	if _, err := h.users.Register(c.Request.Context(), username, email, password); err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			setFlash(c, "User already exists")
		default:
			h.logger.Warnf("register %q: %v", username, err)
			setFlash(c, err.Error())
		}
		c.Redirect(http.StatusFound, "/register")
		return
	}

	setFlash(c, "Registered! Please login.")
	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) loginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"Flash": popFlash(c)})
}

func (h *Handler) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.users.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Errorf("authenticate %q: %v", username, err)
		}
		// uniform message regardless of cause
		setFlash(c, "Invalid credentials")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	if err := h.sessions.Issue(c.Writer, user.ID, user.Username); err != nil {
		h.logger.Errorf("issue session: %v", err)
		setFlash(c, "Login failed, please try again")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) logout(c *gin.Context) {
	h.sessions.Clear(c.Writer)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) uploadForm(c *gin.Context) {
	ident, ok := h.requireUser(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "upload.html", gin.H{
		"Username": ident.Username,
		"Flash":    popFlash(c),
	})
}

func (h *Handler) upload(c *gin.Context) {
	ident, ok := h.requireUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader.Filename == "" {
		setFlash(c, "No file selected")
		c.Redirect(http.StatusFound, "/upload")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		h.logger.Warnf("open upload: %v", err)
		setFlash(c, "Could not read the uploaded file")
		c.Redirect(http.StatusFound, "/upload")
		return
	}
	defer src.Close()

	uploaderID := ident.UserID
	record, err := h.files.Upload(c.Request.Context(), fileHeader.Filename, src, &uploaderID)
	if err != nil {
		var storageErr *service.StorageError
		switch {
		case errors.Is(err, service.ErrEmptyUpload):
			setFlash(c, "No file selected")
		case errors.As(err, &storageErr):
			h.logger.Errorf("store upload: %v", storageErr.Err)
			setFlash(c, storageErr.Error())
		default:
			h.logger.Errorf("record upload: %v", err)
			setFlash(c, "Upload failed, please try again")
		}
		c.Redirect(http.StatusFound, "/upload")
		return
	}

	h.logger.Infof("stored %s as %s for user %d", record.Filename, record.StorageKey, ident.UserID)
	setFlash(c, "File uploaded!")
	c.Redirect(http.StatusFound, "/")
}
