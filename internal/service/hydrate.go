package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/d60-Lab/hydration/internal/model"
	"github.com/d60-Lab/hydration/internal/repository"
	"github.com/d60-Lab/hydration/pkg/logger"
)

// hydrate 并发读取每个 id 的记录并按输入顺序组装摘要。
// 结果按下标写回，与完成顺序无关；记录缺失生成占位摘要，其余错误使整批失败并取消未完成的读取。
func hydrate(ctx context.Context, repo repository.PostRepository, ids []string, limit int) ([]model.PostSummary, error) {
	out := make([]model.PostSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range ids {
		g.Go(func() error {
			post, err := repo.Get(gctx, id)
			switch {
			case err == nil:
				out[i] = model.Summarize(id, post)
			case errors.Is(err, repository.ErrNotFound):
				logger.Warn("indexed post has no record", zap.String("id", id))
				out[i] = model.Summarize(id, nil)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
