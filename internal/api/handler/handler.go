package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/hydration/internal/repository"
	"github.com/d60-Lab/hydration/internal/service"
	"github.com/d60-Lab/hydration/pkg/response"
)

// Options handler 参数
type Options struct {
	// DefaultCount 未传 count 时的列表长度
	DefaultCount int
	// HelpFile /help 渲染的 markdown 文件
	HelpFile string
	// Ping 存储探活，nil 时 /healthz 恒为 ok
	Ping func(ctx context.Context) error
}

// Handler 所有 HTTP 接口的接收者
type Handler struct {
	postService service.PostService
	opts        Options
}

func NewHandler(postService service.PostService, opts Options) *Handler {
	return &Handler{postService: postService, opts: opts}
}

// fail 按错误类型输出响应
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMalformedInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, repository.ErrStoreTimeout):
		response.ServerError(c, http.StatusGatewayTimeout, response.CodeTimeout, err)
	case errors.Is(err, repository.ErrStoreUnavailable):
		response.ServerError(c, http.StatusInternalServerError, response.CodeUnavailable, err)
	default:
		response.InternalError(c, err)
	}
}

// Health 存活与存储连通性检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} response.ErrorBody
// @Router /healthz [get]
func (h *Handler) Health(c *gin.Context) {
	if h.opts.Ping != nil {
		if err := h.opts.Ping(c.Request.Context()); err != nil {
			response.ServerError(c, http.StatusServiceUnavailable, response.CodeUnavailable, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
