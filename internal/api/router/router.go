package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/hydration/docs"
	"github.com/d60-Lab/hydration/internal/api/handler"
	"github.com/d60-Lab/hydration/internal/api/middleware"
)

// Options 路由参数
type Options struct {
	ServiceName string
	Gzip        bool
	Swagger     bool
}

// Setup 注册中间件与路由
func Setup(h *handler.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())
	if opts.ServiceName != "" {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	if opts.Gzip {
		r.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	r.GET("/healthz", h.Health)
	r.GET("/help", h.Help)

	r.GET("/post/:id", h.GetPost)
	r.HEAD("/post/:id", h.HeadPost)
	r.GET("/post/:id/page", h.GetPostPage)

	r.GET("/posts", h.ListPosts)
	r.GET("/posts/all", h.ListAllPosts)

	if opts.Swagger {
		docs.SwaggerInfo.BasePath = "/"
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r
}
