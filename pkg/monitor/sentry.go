// Package monitor 错误上报（sentry），未配置 DSN 时所有调用为空操作
package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

var enabled atomic.Bool

// Options sentry 初始化参数
type Options struct {
	DSN         string
	Environment string
	Release     string
	SampleRate  float64
}

// Init 初始化 sentry；返回的函数在退出前调用以刷新缓冲
func Init(opts Options) (func(), error) {
	if opts.DSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         opts.DSN,
		Environment: opts.Environment,
		Release:     opts.Release,
		SampleRate:  opts.SampleRate,
	})
	if err != nil {
		return func() {}, err
	}
	enabled.Store(true)
	return func() {
		sentry.Flush(2 * time.Second)
		enabled.Store(false)
	}, nil
}

// Enabled 是否已启用上报
func Enabled() bool { return enabled.Load() }

// CaptureError 上报错误，ctx 中带有 hub 时优先使用
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil || !enabled.Load() {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}
