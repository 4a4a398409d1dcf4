// Package server exposes lesson-plan diagnosis over HTTP: an upload page
// and a JSON API.
package server

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/abhisek/lessondiag/internal/lessonplan"
	"github.com/abhisek/lessondiag/internal/report"
)

//go:embed index.html
var indexHTML []byte

// Diagnoser runs one diagnosis. *app.App satisfies it.
type Diagnoser interface {
	Run(ctx context.Context, text string) (*report.Report, error)
}

// Config holds server settings.
type Config struct {
	Addr         string
	Release      bool
	AllowOrigins []string
	// RunTimeout bounds a whole diagnosis request.
	RunTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:8080",
		AllowOrigins: []string{"*"},
		RunTimeout:   5 * time.Minute,
	}
}

// Setup builds the gin engine.
func Setup(d Diagnoser, cfg Config) *gin.Engine {
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	r.MaxMultipartMemory = lessonplan.MaxBytes

	h := &handler{diagnoser: d, timeout: cfg.RunTimeout}

	r.GET("/", h.index)
	r.GET("/healthz", h.health)

	api := r.Group("/api")
	{
		api.POST("/diagnose", h.diagnose)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, d Diagnoser, cfg Config) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           Setup(d, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		klog.InfoS("Listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		klog.InfoS("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type handler struct {
	diagnoser Diagnoser
	timeout   time.Duration
}

func (h *handler) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) diagnose(c *gin.Context) {
	text, err := readPlan(c)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	rep, err := h.diagnoser.Run(ctx, text)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}

var errNoInput = errors.New(`provide the lesson plan as a "file" upload or a "text" field`)

// readPlan takes the plan from a multipart "file" part, falling back to a
// "text" form field.
func readPlan(c *gin.Context) (string, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		return lessonplan.Read(f)
	}

	text, ok := c.GetPostForm("text")
	if !ok {
		return "", errNoInput
	}
	return lessonplan.Read(strings.NewReader(text))
}

func statusFor(err error) int {
	var short *lessonplan.ErrTooShort
	switch {
	case errors.As(err, &short):
		return http.StatusUnprocessableEntity
	case errors.Is(err, lessonplan.ErrNotUTF8), errors.Is(err, errNoInput):
		return http.StatusBadRequest
	case errors.Is(err, lessonplan.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		klog.V(2).InfoS("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latencyMs", time.Since(start).Milliseconds())
	}
}
