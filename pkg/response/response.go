package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/hydration/pkg/logger"
	"github.com/d60-Lab/hydration/pkg/monitor"
)

// 错误码
const (
	CodeBadRequest  = "bad_request"
	CodeNotFound    = "not_found"
	CodeUnavailable = "store_unavailable"
	CodeTimeout     = "store_timeout"
	CodeInternal    = "internal_error"
)

// ErrorBody 错误响应体
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success 直接输出数据（列表接口返回裸数组）
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func BadRequest(c *gin.Context, msg string) {
	Fail(c, http.StatusBadRequest, CodeBadRequest, msg)
}

func NotFound(c *gin.Context, msg string) {
	Fail(c, http.StatusNotFound, CodeNotFound, msg)
}

// InternalError 500 并上报
func InternalError(c *gin.Context, err error) {
	ServerError(c, http.StatusInternalServerError, CodeInternal, err)
}

// ServerError 输出 5xx，记录日志并上报 sentry
func ServerError(c *gin.Context, status int, code string, err error) {
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	monitor.CaptureError(c.Request.Context(), err, map[string]string{"code": code, "route": c.FullPath()})
	_ = c.Error(err)
	Fail(c, status, code, err.Error())
}

// Fail 输出错误响应并终止后续处理
func Fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorBody{Code: code, Message: msg})
}
