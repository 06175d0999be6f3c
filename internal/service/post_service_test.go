package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/hydration/internal/model"
	"github.com/d60-Lab/hydration/internal/repository"
	"github.com/d60-Lab/hydration/internal/testutil"
)

// fakeRepo 内存实现，可为每个 id 注入延迟与错误
type fakeRepo struct {
	mu      sync.Mutex
	records map[string]map[string]string
	set     []string
	feed    []string
	sorted  []string
	delays  map[string]time.Duration
	errs    map[string]error
	rangeFn func(offset, limit int)

	inflight    atomic.Int32
	maxInflight atomic.Int32
	canceled    atomic.Int32
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records: map[string]map[string]string{},
		delays:  map[string]time.Duration{},
		errs:    map[string]error{},
	}
}

func (r *fakeRepo) put(id, title string) {
	r.records[id] = map[string]string{"title": title}
}

func (r *fakeRepo) Get(ctx context.Context, id string) (*model.Post, error) {
	n := r.inflight.Add(1)
	defer r.inflight.Add(-1)
	for {
		m := r.maxInflight.Load()
		if n <= m || r.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}

	r.mu.Lock()
	d, err, fields := r.delays[id], r.errs[id], r.records[id]
	r.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			r.canceled.Add(1)
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("post %q: %w", id, repository.ErrNotFound)
	}
	return model.NewPost(id, fields), nil
}

func (r *fakeRepo) IsMember(_ context.Context, id string) (bool, error) {
	for _, s := range r.set {
		if s == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) ListAllIDs(context.Context) ([]string, error) { return r.set, nil }

func (r *fakeRepo) FeedRange(_ context.Context, offset, limit int) ([]string, error) {
	if r.rangeFn != nil {
		r.rangeFn(offset, limit)
	}
	return window(r.feed, offset, limit), nil
}

func (r *fakeRepo) SortedRange(_ context.Context, offset, limit int) ([]string, error) {
	if r.rangeFn != nil {
		r.rangeFn(offset, limit)
	}
	return window(r.sorted, offset, limit), nil
}

func window(ids []string, offset, limit int) []string {
	if limit <= 0 || offset >= len(ids) {
		return []string{}
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end]
}

func ids(items []model.PostSummary) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func titleOf(t *testing.T, s model.PostSummary) string {
	t.Helper()
	require.NotNil(t, s.Title, "summary %s has no title", s.ID)
	return *s.Title
}

func TestGetAllMissingRecordBecomesPlaceholder(t *testing.T) {
	repo := newFakeRepo()
	repo.set = []string{"p1", "p2", "p3"}
	repo.put("p1", "A")
	repo.put("p3", "C")
	svc := NewPostService(repo, Options{})

	items, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(items))
	assert.Equal(t, "A", titleOf(t, items[0]))
	assert.Nil(t, items[1].Title)
	assert.True(t, items[1].Missing)
	assert.Equal(t, "C", titleOf(t, items[2]))
}

func TestGetFeedPreservesOrderWhenLaterFetchFinishesFirst(t *testing.T) {
	repo := newFakeRepo()
	repo.feed = []string{"p3", "p1"}
	repo.put("p1", "A")
	repo.put("p3", "C")
	repo.delays["p3"] = 30 * time.Millisecond
	svc := NewPostService(repo, Options{})

	items, err := svc.GetFeed(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p1"}, ids(items))
	assert.Equal(t, "C", titleOf(t, items[0]))
}

func TestHydrationOrderUnderRandomLatency(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 20; round++ {
		repo := newFakeRepo()
		n := 1 + rng.Intn(40)
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("p%02d", i)
			repo.put(id, "title "+id)
			repo.delays[id] = time.Duration(rng.Intn(5000)) * time.Microsecond
		}
		perm := rng.Perm(n)
		for _, i := range perm {
			repo.feed = append(repo.feed, fmt.Sprintf("p%02d", i))
		}
		repo.sorted = append([]string(nil), repo.feed...)
		svc := NewPostService(repo, Options{})

		feed, err := svc.GetFeed(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, repo.feed, ids(feed))
		for _, s := range feed {
			assert.Equal(t, "title "+s.ID, titleOf(t, s))
		}

		sorted, err := svc.GetSorted(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, repo.sorted, ids(sorted))
	}
}

func TestInfraErrorFailsWholeBatch(t *testing.T) {
	repo := newFakeRepo()
	repo.feed = []string{"p1", "p2", "p3"}
	repo.put("p1", "A")
	repo.put("p3", "C")
	repo.errs["p2"] = fmt.Errorf("hgetall: %w", repository.ErrStoreUnavailable)
	// 慢请求应在批次失败后被取消
	repo.delays["p3"] = 5 * time.Second
	svc := NewPostService(repo, Options{})

	start := time.Now()
	items, err := svc.GetFeed(context.Background(), 10)
	assert.Nil(t, items)
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(1), repo.canceled.Load())
}

func TestTimeoutErrorFailsBatch(t *testing.T) {
	repo := newFakeRepo()
	repo.sorted = []string{"p1", "p2"}
	repo.put("p2", "B")
	repo.errs["p1"] = fmt.Errorf("hgetall: %w", repository.ErrStoreTimeout)
	svc := NewPostService(repo, Options{})

	_, err := svc.GetSorted(context.Background(), 10)
	assert.ErrorIs(t, err, repository.ErrStoreTimeout)
}

func TestCallerCancellationAbandonsFetches(t *testing.T) {
	repo := newFakeRepo()
	repo.feed = []string{"p1", "p2"}
	repo.put("p1", "A")
	repo.put("p2", "B")
	repo.delays["p1"] = 5 * time.Second
	repo.delays["p2"] = 5 * time.Second
	svc := NewPostService(repo, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.GetFeed(ctx, 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetSingle(t *testing.T) {
	repo := newFakeRepo()
	repo.records["p1"] = map[string]string{"title": "A", "description": "first"}
	svc := NewPostService(repo, Options{})
	ctx := context.Background()

	p, err := svc.GetSingle(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"title": "A", "description": "first"}, p.Fields)

	_, err = svc.GetSingle(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.GetSingle(ctx, "")
	assert.ErrorIs(t, err, ErrMalformedInput)

	repo.errs["p1"] = repository.ErrStoreUnavailable
	_, err = svc.GetSingle(ctx, "p1")
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
}

func TestExists(t *testing.T) {
	repo := newFakeRepo()
	repo.set = []string{"p1"}
	svc := NewPostService(repo, Options{})

	ok, err := svc.Exists(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(context.Background(), "p2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCountHandling(t *testing.T) {
	repo := newFakeRepo()
	repo.sorted = []string{"p1", "p2", "p3"}
	repo.feed = []string{"p1", "p2", "p3"}
	var gotLimit int
	repo.rangeFn = func(_, limit int) { gotLimit = limit }
	svc := NewPostService(repo, Options{MaxCount: 2})
	ctx := context.Background()

	items, err := svc.GetSorted(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	_, err = svc.GetFeed(ctx, -1)
	assert.ErrorIs(t, err, ErrMalformedInput)

	items, err = svc.GetFeed(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, gotLimit)
	assert.Len(t, items, 2)
}

func TestMaxConcurrency(t *testing.T) {
	repo := newFakeRepo()
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("p%02d", i)
		repo.put(id, id)
		repo.delays[id] = 2 * time.Millisecond
		repo.feed = append(repo.feed, id)
	}
	svc := NewPostService(repo, Options{MaxConcurrency: 3})

	items, err := svc.GetFeed(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, repo.feed, ids(items))
	assert.LessOrEqual(t, repo.maxInflight.Load(), int32(3))
}

func TestListDispatch(t *testing.T) {
	repo := newFakeRepo()
	repo.feed = []string{"f1"}
	repo.sorted = []string{"s1"}
	repo.set = []string{"a1", "a2"}
	svc := NewPostService(repo, Options{})
	ctx := context.Background()

	items, err := svc.List(ctx, IntentFeed, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids(items))

	items, err = svc.List(ctx, IntentSorted, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids(items))

	items, err = svc.List(ctx, IntentAll, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, ids(items))

	_, err = svc.List(ctx, IntentSingle, 10)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

// 与真实 redis 客户端（miniredis）组合验证
func TestWithRedisRepository(t *testing.T) {
	f := testutil.NewFixture(t)
	f.AddPost("p1", "title", "A")
	f.AddPost("p3", "title", "C")
	f.AddToSet("p1", "p2", "p3")
	f.PushFeed("p3", "p2", "p1")
	f.AddSorted("p1", 1)
	f.AddSorted("p2", 2)
	f.AddSorted("p3", 3)

	svc := NewPostService(repository.NewPostRepository(f.Client, f.Prefix), Options{})
	ctx := context.Background()

	feed, err := svc.GetFeed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2", "p1"}, ids(feed))
	assert.True(t, feed[1].Missing)

	sorted, err := svc.GetSorted(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids(sorted))

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, ids(all))

	f.Server.SetError("ERR down")
	_, err = svc.GetAll(ctx)
	assert.True(t, errors.Is(err, repository.ErrStoreUnavailable))
}
