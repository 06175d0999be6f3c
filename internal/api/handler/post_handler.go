package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/hydration/internal/model"
	"github.com/d60-Lab/hydration/internal/render"
	"github.com/d60-Lab/hydration/internal/service"
	"github.com/d60-Lab/hydration/pkg/response"
)

// PartialResultHeader 列表中占位条目的数量
const PartialResultHeader = "X-Partial-Result"

type listQuery struct {
	Q     string `form:"q"`
	Count *int   `form:"count" binding:"omitempty,min=0"`
}

// GetPost 查询单个帖子
// @Summary 查询帖子原始记录
// @Tags 帖子
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /post/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.postService.GetSingle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, post)
}

// HeadPost 判断帖子是否在全量集合中
// @Summary 帖子是否存在
// @Tags 帖子
// @Param id path string true "帖子ID"
// @Success 200
// @Failure 404
// @Router /post/{id} [head]
func (h *Handler) HeadPost(c *gin.Context) {
	ok, err := h.postService.Exists(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusOK)
}

// GetPostPage 渲染帖子的 HTML 页面（带分享预览 meta）
// @Summary 帖子页面
// @Tags 帖子
// @Produce html
// @Param id path string true "帖子ID"
// @Success 200 {string} string "HTML"
// @Failure 404 {object} response.ErrorBody
// @Router /post/{id}/page [get]
func (h *Handler) GetPostPage(c *gin.Context) {
	post, err := h.postService.GetSingle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := render.PageBytes(post)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// ListPosts 时间线或按发布时间排序的帖子列表
// @Summary 帖子列表
// @Tags 帖子
// @Produce json
// @Param q query string false "sorted 按发布时间，否则按时间线"
// @Param count query int false "数量" default(10)
// @Success 200 {array} model.PostSummary
// @Failure 400 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}
	count := h.opts.DefaultCount
	if q.Count != nil {
		count = *q.Count
	}
	h.list(c, service.ParseIntent(q.Q), count)
}

// ListAllPosts 全量集合中的所有帖子
// @Summary 全部帖子
// @Tags 帖子
// @Produce json
// @Success 200 {array} model.PostSummary
// @Failure 500 {object} response.ErrorBody
// @Router /posts/all [get]
func (h *Handler) ListAllPosts(c *gin.Context) {
	h.list(c, service.IntentAll, 0)
}

func (h *Handler) list(c *gin.Context, intent service.Intent, count int) {
	items, err := h.postService.List(c.Request.Context(), intent, count)
	if err != nil {
		h.fail(c, err)
		return
	}
	if n := model.CountMissing(items); n > 0 {
		c.Header(PartialResultHeader, strconv.Itoa(n))
	}
	response.Success(c, items)
}
