// Package testutil 测试用的 redis 夹具
package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// Fixture 一个 miniredis 实例及连接它的客户端
type Fixture struct {
	T      testing.TB
	Server *miniredis.Miniredis
	Client *redis.Client
	Prefix string
}

// NewFixture 启动 miniredis，测试结束自动关闭
func NewFixture(t testing.TB) *Fixture {
	t.Helper()
	s := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = c.Close() })
	return &Fixture{T: t, Server: s, Client: c, Prefix: "post"}
}

// AddPost 写入帖子 hash，fv 为 field,value 交替
func (f *Fixture) AddPost(id string, fv ...string) {
	f.Server.HSet(f.Prefix+":dict:"+id, fv...)
}

// DeletePost 删除帖子 hash，索引保持不变
func (f *Fixture) DeletePost(id string) {
	f.Server.Del(f.Prefix + ":dict:" + id)
}

func (f *Fixture) AddToSet(ids ...string) {
	if _, err := f.Server.SAdd(f.Prefix+":set", ids...); err != nil {
		f.T.Fatalf("sadd: %v", err)
	}
}

// PushFeed 按给定顺序追加到时间线列表尾部
func (f *Fixture) PushFeed(ids ...string) {
	if _, err := f.Server.Push(f.Prefix+":list", ids...); err != nil {
		f.T.Fatalf("rpush: %v", err)
	}
}

func (f *Fixture) AddSorted(id string, score float64) {
	if _, err := f.Server.ZAdd(f.Prefix+":sorted:published", score, id); err != nil {
		f.T.Fatalf("zadd: %v", err)
	}
}
