package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/hydration/internal/model"
)

// PostRepository 帖子存储的五个读原语
type PostRepository interface {
	// Get 读取帖子 hash；不存在返回 ErrNotFound
	Get(ctx context.Context, id string) (*model.Post, error)
	// IsMember 判断 id 是否在全量集合中
	IsMember(ctx context.Context, id string) (bool, error)
	// ListAllIDs 枚举全量集合，顺序由 store 决定
	ListAllIDs(ctx context.Context) ([]string, error)
	// FeedRange 按位置读取时间线列表
	FeedRange(ctx context.Context, offset, limit int) ([]string, error)
	// SortedRange 按发布时间分值排名读取
	SortedRange(ctx context.Context, offset, limit int) ([]string, error)
}

// Keys 帖子相关的 redis key
type Keys struct {
	prefix string
}

func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = "post"
	}
	return Keys{prefix: prefix}
}

func (k Keys) Dict(id string) string { return k.prefix + ":dict:" + id }
func (k Keys) Set() string           { return k.prefix + ":set" }
func (k Keys) List() string          { return k.prefix + ":list" }
func (k Keys) Sorted() string        { return k.prefix + ":sorted:published" }

type postRepository struct {
	rdb  redis.UniversalClient
	keys Keys
}

func NewPostRepository(rdb redis.UniversalClient, keyPrefix string) PostRepository {
	return &postRepository{rdb: rdb, keys: NewKeys(keyPrefix)}
}

func (r *postRepository) Get(ctx context.Context, id string) (*model.Post, error) {
	fields, err := r.rdb.HGetAll(ctx, r.keys.Dict(id)).Result()
	if err != nil {
		return nil, wrapStoreErr("hgetall", err)
	}
	// 不存在的 key 与空 hash 在 redis 中无法区分
	if len(fields) == 0 {
		return nil, fmt.Errorf("post %q: %w", id, ErrNotFound)
	}
	return &model.Post{ID: id, Fields: fields}, nil
}

func (r *postRepository) IsMember(ctx context.Context, id string) (bool, error) {
	ok, err := r.rdb.SIsMember(ctx, r.keys.Set(), id).Result()
	if err != nil {
		return false, wrapStoreErr("sismember", err)
	}
	return ok, nil
}

func (r *postRepository) ListAllIDs(ctx context.Context) ([]string, error) {
	ids, err := r.rdb.SMembers(ctx, r.keys.Set()).Result()
	if err != nil {
		return nil, wrapStoreErr("smembers", err)
	}
	return ids, nil
}

func (r *postRepository) FeedRange(ctx context.Context, offset, limit int) ([]string, error) {
	start, stop, ok := rangeBounds(offset, limit)
	if !ok {
		return []string{}, nil
	}
	ids, err := r.rdb.LRange(ctx, r.keys.List(), start, stop).Result()
	if err != nil {
		return nil, wrapStoreErr("lrange", err)
	}
	return ids, nil
}

func (r *postRepository) SortedRange(ctx context.Context, offset, limit int) ([]string, error) {
	start, stop, ok := rangeBounds(offset, limit)
	if !ok {
		return []string{}, nil
	}
	ids, err := r.rdb.ZRange(ctx, r.keys.Sorted(), start, stop).Result()
	if err != nil {
		return nil, wrapStoreErr("zrange", err)
	}
	return ids, nil
}

// rangeBounds 把 (offset, limit) 转成 redis 的闭区间 [start, stop]。
// limit<=0 时返回 ok=false：LRANGE 0 -1 会返回整个列表，不能直接下发。
func rangeBounds(offset, limit int) (start, stop int64, ok bool) {
	if limit <= 0 {
		return 0, 0, false
	}
	if offset < 0 {
		offset = 0
	}
	return int64(offset), int64(offset + limit - 1), true
}
