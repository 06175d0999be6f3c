package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/hydration/internal/render"
	"github.com/d60-Lab/hydration/pkg/response"
)

// Help 渲染帮助文档
// @Summary 帮助文档
// @Tags 系统
// @Produce html
// @Success 200 {string} string "HTML"
// @Router /help [get]
func (h *Handler) Help(c *gin.Context) {
	html, err := render.HelpFile(h.opts.HelpFile)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}
