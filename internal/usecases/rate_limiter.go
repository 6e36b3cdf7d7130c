package usecases

import "context"

// RateLimiter: семафор, не больше N одновременных обращений к хранилищу.
type RateLimiter struct {
	semaphore chan struct{}
}

func NewRateLimiter(maxConcurrent int) *RateLimiter {
	if maxConcurrent < 1 {
		maxConcurrent = 10
	}
	return &RateLimiter{semaphore: make(chan struct{}, maxConcurrent)}
}

// Acquire ждёт свободный слот или отмену контекста.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case rl.semaphore <- struct{}{}:
		return nil
	}
}

func (rl *RateLimiter) Release() {
	select {
	case <-rl.semaphore:
	default:
	}
}

// InUse возвращает число занятых слотов.
func (rl *RateLimiter) InUse() int {
	return len(rl.semaphore)
}

// do выполняет fn внутри слота.
func (rl *RateLimiter) do(ctx context.Context, fn func() error) error {
	if err := rl.Acquire(ctx); err != nil {
		return err
	}
	defer rl.Release()
	return fn()
}
