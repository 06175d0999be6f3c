package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/d60-Lab/hydration/internal/model"
	"github.com/d60-Lab/hydration/internal/repository"
)

var (
	ErrMalformedInput = errors.New("malformed input")
)

var tracer = otel.Tracer("github.com/d60-Lab/hydration/internal/service")

// PostService 帖子读取与聚合服务
type PostService interface {
	GetSingle(ctx context.Context, id string) (*model.Post, error)
	Exists(ctx context.Context, id string) (bool, error)
	GetAll(ctx context.Context) ([]model.PostSummary, error)
	GetFeed(ctx context.Context, count int) ([]model.PostSummary, error)
	GetSorted(ctx context.Context, count int) ([]model.PostSummary, error)
	// List 按意图分发到 GetFeed / GetSorted / GetAll
	List(ctx context.Context, intent Intent, count int) ([]model.PostSummary, error)
}

// Options 服务参数
type Options struct {
	// MaxCount 单次列表的上限，超出截断；0 不限制
	MaxCount int
	// MaxConcurrency 批量读取的并发上限；0 不限制
	MaxConcurrency int
}

type listFunc func(s *postService, ctx context.Context, count int) ([]model.PostSummary, error)

var listers = map[Intent]listFunc{
	IntentFeed:   (*postService).GetFeed,
	IntentSorted: (*postService).GetSorted,
	IntentAll: func(s *postService, ctx context.Context, _ int) ([]model.PostSummary, error) {
		return s.GetAll(ctx)
	},
}

type postService struct {
	repo repository.PostRepository
	opts Options
}

func NewPostService(repo repository.PostRepository, opts Options) PostService {
	return &postService{repo: repo, opts: opts}
}

func (s *postService) GetSingle(ctx context.Context, id string) (*model.Post, error) {
	ctx, span := tracer.Start(ctx, "PostService.GetSingle", trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()

	if id == "" {
		return nil, fmt.Errorf("%w: empty post id", ErrMalformedInput)
	}
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		recordErr(span, err)
		return nil, err
	}
	return post, nil
}

func (s *postService) Exists(ctx context.Context, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, "PostService.Exists", trace.WithAttributes(attribute.String("post.id", id)))
	defer span.End()

	if id == "" {
		return false, fmt.Errorf("%w: empty post id", ErrMalformedInput)
	}
	ok, err := s.repo.IsMember(ctx, id)
	if err != nil {
		recordErr(span, err)
		return false, err
	}
	return ok, nil
}

func (s *postService) GetAll(ctx context.Context) ([]model.PostSummary, error) {
	ctx, span := tracer.Start(ctx, "PostService.GetAll")
	defer span.End()

	ids, err := s.repo.ListAllIDs(ctx)
	if err != nil {
		recordErr(span, err)
		return nil, err
	}
	return s.hydrate(ctx, span, ids)
}

func (s *postService) GetFeed(ctx context.Context, count int) ([]model.PostSummary, error) {
	ctx, span := tracer.Start(ctx, "PostService.GetFeed", trace.WithAttributes(attribute.Int("count", count)))
	defer span.End()

	n, err := s.normalizeCount(count)
	if err != nil {
		return nil, err
	}
	ids, err := s.repo.FeedRange(ctx, 0, n)
	if err != nil {
		recordErr(span, err)
		return nil, err
	}
	return s.hydrate(ctx, span, ids)
}

func (s *postService) GetSorted(ctx context.Context, count int) ([]model.PostSummary, error) {
	ctx, span := tracer.Start(ctx, "PostService.GetSorted", trace.WithAttributes(attribute.Int("count", count)))
	defer span.End()

	n, err := s.normalizeCount(count)
	if err != nil {
		return nil, err
	}
	ids, err := s.repo.SortedRange(ctx, 0, n)
	if err != nil {
		recordErr(span, err)
		return nil, err
	}
	return s.hydrate(ctx, span, ids)
}

func (s *postService) List(ctx context.Context, intent Intent, count int) ([]model.PostSummary, error) {
	fn, ok := listers[intent]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a list intent", ErrMalformedInput, intent)
	}
	return fn(s, ctx, count)
}

func (s *postService) hydrate(ctx context.Context, span trace.Span, ids []string) ([]model.PostSummary, error) {
	items, err := hydrate(ctx, s.repo, ids, s.opts.MaxConcurrency)
	if err != nil {
		recordErr(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("posts.returned", len(items)),
		attribute.Int("posts.missing", model.CountMissing(items)),
	)
	return items, nil
}

func (s *postService) normalizeCount(count int) (int, error) {
	if count < 0 {
		return 0, fmt.Errorf("%w: count must not be negative, got %d", ErrMalformedInput, count)
	}
	if s.opts.MaxCount > 0 && count > s.opts.MaxCount {
		return s.opts.MaxCount, nil
	}
	return count, nil
}

func recordErr(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
