package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrNotFound         = errors.New("post not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStoreTimeout     = errors.New("store timeout")
)

// wrapStoreErr 把驱动错误归类为 ErrStoreTimeout / ErrStoreUnavailable，原始错误保留在链上。
// 调用方主动取消时只附带操作名，不归类。
func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if isTimeout(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
