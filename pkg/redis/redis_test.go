package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ── 测试辅助 ──

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewFromUniversal(rdb, zap.NewNop()), mr
}

// ── 分布式锁 ──

func TestLock_ExclusiveAndRelease(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	token, ok, err := c.TryLock(ctx, "course_version:c-1", 10*time.Second)
	if err != nil || !ok {
		t.Fatalf("首次加锁应成功: ok=%v err=%v", ok, err)
	}
	if got, _ := mr.Get("lock:course_version:c-1"); got != token {
		t.Errorf("锁值应为持有者 token，实际 %q", got)
	}

	if _, ok, _ := c.TryLock(ctx, "course_version:c-1", 10*time.Second); ok {
		t.Error("锁被持有时不应再次获取")
	}
	if _, ok, _ := c.TryLock(ctx, "course_version:c-2", 10*time.Second); !ok {
		t.Error("不同课程的锁应互不影响")
	}

	if err := c.Unlock(ctx, "course_version:c-1", "other-token"); !errors.Is(err, ErrLockNotHeld) {
		t.Errorf("非持有者释放应返回 ErrLockNotHeld，实际: %v", err)
	}
	if !mr.Exists("lock:course_version:c-1") {
		t.Fatal("非持有者释放不应删除锁")
	}

	if err := c.Unlock(ctx, "course_version:c-1", token); err != nil {
		t.Fatalf("持有者释放应成功: %v", err)
	}
	if _, ok, _ := c.TryLock(ctx, "course_version:c-1", 10*time.Second); !ok {
		t.Error("释放后应可重新加锁")
	}
}

func TestLock_ExpiresAfterTTL(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	token, _, _ := c.TryLock(ctx, "k", 5*time.Second)
	mr.FastForward(6 * time.Second)

	if _, ok, _ := c.TryLock(ctx, "k", 5*time.Second); !ok {
		t.Error("锁过期后应可重新获取")
	}
	if err := c.Unlock(ctx, "k", token); !errors.Is(err, ErrLockNotHeld) {
		t.Errorf("过期持有者释放应返回 ErrLockNotHeld，实际: %v", err)
	}
}

func TestLock_WaitTimesOut(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if _, ok, _ := c.TryLock(ctx, "k", 10*time.Second); !ok {
		t.Fatal("首次加锁应成功")
	}

	start := time.Now()
	token, ok, err := c.Lock(ctx, "k", 10*time.Second, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("等待超时不应返回错误: %v", err)
	}
	if ok || token != "" {
		t.Error("锁被持有时等待超时应返回 ok=false")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("等待时间应受 wait 限制，实际 %v", elapsed)
	}
}

func TestLock_AcquiredAfterRelease(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	held, _, _ := c.TryLock(ctx, "k", 10*time.Second)
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = c.Unlock(context.Background(), "k", held)
	}()

	token, ok, err := c.Lock(ctx, "k", 10*time.Second, 2*time.Second)
	if err != nil || !ok || token == "" {
		t.Fatalf("释放后等待方应获得锁: ok=%v err=%v", ok, err)
	}
}

func TestLock_ContextCanceled(t *testing.T) {
	c, _ := newTestClient(t)
	c.TryLock(context.Background(), "k", 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok, err := c.Lock(ctx, "k", 10*time.Second, 2*time.Second); ok || err == nil {
		t.Errorf("上下文取消时应返回错误，实际 ok=%v err=%v", ok, err)
	}
}

// ── 限流 ──

func TestCheckRateLimit(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	var got []bool
	for i := 0; i < 3; i++ {
		ok, err := c.CheckRateLimit(ctx, "user:u-1:POST:/courses/:id/versions", 2, time.Minute)
		if err != nil {
			t.Fatalf("CheckRateLimit 应成功: %v", err)
		}
		got = append(got, ok)
	}
	if !got[0] || !got[1] || got[2] {
		t.Errorf("期望 [true true false]，实际 %v", got)
	}

	if ok, _ := c.CheckRateLimit(ctx, "user:u-2:POST:/courses/:id/versions", 2, time.Minute); !ok {
		t.Error("不同用户应独立计数")
	}
	if !mr.Exists("rate_limit:user:u-1:POST:/courses/:id/versions") {
		t.Error("计数键应带 rate_limit: 前缀")
	}
}

func TestCheckRateLimit_WindowSlides(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	window := 100 * time.Millisecond

	if ok, _ := c.CheckRateLimit(ctx, "ip:10.0.0.1", 1, window); !ok {
		t.Fatal("窗口内首个请求应被允许")
	}
	if ok, _ := c.CheckRateLimit(ctx, "ip:10.0.0.1", 1, window); ok {
		t.Fatal("超出限额应被拒绝")
	}

	time.Sleep(2 * window)
	if ok, _ := c.CheckRateLimit(ctx, "ip:10.0.0.1", 1, window); !ok {
		t.Error("窗口滑过后应重新允许")
	}
}

// ── Token 黑名单 ──

func TestIsBlacklisted(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()
	mr.Set("token:blacklist:jti-revoked", "1")

	revoked, err := c.IsBlacklisted(ctx, "jti-revoked")
	if err != nil || !revoked {
		t.Errorf("已吊销 jti 应返回 true: revoked=%v err=%v", revoked, err)
	}
	revoked, err = c.IsBlacklisted(ctx, "jti-valid")
	if err != nil || revoked {
		t.Errorf("未吊销 jti 应返回 false: revoked=%v err=%v", revoked, err)
	}
}

func TestRedis_BackendDown(t *testing.T) {
	c, mr := newTestClient(t)
	mr.Close()

	if _, err := c.IsBlacklisted(context.Background(), "jti"); err == nil {
		t.Error("Redis 不可用时应返回错误")
	}
	if _, err := c.CheckRateLimit(context.Background(), "k", 1, time.Minute); err == nil {
		t.Error("Redis 不可用时应返回错误")
	}
}
