package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"blog-posts/internal/post"
	"blog-posts/internal/telemetry"
)

// PostStore is what the handlers need from the storage layer.
type PostStore interface {
	List(ctx context.Context, includeUnpublished bool) ([]post.Post, error)
	Get(ctx context.Context, id int32) (post.Post, error)
	Create(ctx context.Context, in post.NewPost) (post.Post, error)
	Publish(ctx context.Context, id int32) (post.Post, error)
	Delete(ctx context.Context, f post.DeleteFilter) (int64, error)
}

type Server struct {
	R     *gin.Engine
	Posts PostStore
	Now   func() time.Time

	logger *slog.Logger
}

// NewServer registers every route on a fresh gin engine. gatherer backs
// /metrics; metrics may be nil.
func NewServer(posts PostStore, logger *slog.Logger, metrics *telemetry.Metrics, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(recovery(logger), requestLogger(logger), observe(metrics))

	s := &Server{R: r, Posts: posts, Now: time.Now, logger: logger}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": s.Now().UTC()})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/post", s.listPosts)
	r.GET("/post/:id", s.getPost)
	r.POST("/post", s.createPost)
	r.POST("/post/:id/publish", s.publishPost)
	r.DELETE("/post", s.deletePosts)

	return s
}

// Handler is the engine wrapped with request tracing.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.R, "http.server")
}
