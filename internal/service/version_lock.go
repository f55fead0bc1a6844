package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	pkgerrors "sims/backend/pkg/errors"
)

// VersionLocker 串行化同一课程的版本创建
type VersionLocker interface {
	// Lock 获取 courseID 对应的临界区，返回的 unlock 必须被调用
	Lock(ctx context.Context, courseID string) (unlock func(), err error)
}

// ── 进程内按键互斥 ──

type keyedLockEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex 每个课程一把互斥锁；无人等待时回收
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLockEntry
}

// NewLocalVersionLocker 创建进程内版本锁
func NewLocalVersionLocker() VersionLocker {
	return &keyedMutex{locks: make(map[string]*keyedLockEntry)}
}

func (k *keyedMutex) Lock(_ context.Context, courseID string) (func(), error) {
	k.mu.Lock()
	entry, ok := k.locks[courseID]
	if !ok {
		entry = &keyedLockEntry{}
		k.locks[courseID] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, courseID)
		}
		k.mu.Unlock()
	}, nil
}

// ── Redis 分布式锁 ──

// DistributedLocker 分布式锁能力（由 pkg/redis.Client 实现）
type DistributedLocker interface {
	Lock(ctx context.Context, key string, ttl, wait time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

type distributedVersionLocker struct {
	client DistributedLocker
	ttl    time.Duration
	wait   time.Duration
	logger *zap.Logger
}

// NewDistributedVersionLocker 创建跨实例的版本锁
func NewDistributedVersionLocker(client DistributedLocker, ttl, wait time.Duration, logger *zap.Logger) VersionLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &distributedVersionLocker{client: client, ttl: ttl, wait: wait, logger: logger}
}

func versionLockKey(courseID string) string {
	return "course_version:" + courseID
}

func (d *distributedVersionLocker) Lock(ctx context.Context, courseID string) (func(), error) {
	key := versionLockKey(courseID)
	token, ok, err := d.client.Lock(ctx, key, d.ttl, d.wait)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVersionLockBusy
	}

	return func() {
		// 请求上下文可能已取消，释放锁使用独立的短超时
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := d.client.Unlock(releaseCtx, key, token); err != nil {
			d.logger.Warn("释放课程版本锁失败", zap.String("course_id", courseID), zap.Error(err))
		}
	}, nil
}

// ── 组合 ──

type chainedVersionLocker []VersionLocker

// ChainVersionLockers 按顺序获取多把锁，逆序释放
func ChainVersionLockers(lockers ...VersionLocker) VersionLocker {
	return chainedVersionLocker(lockers)
}

func (c chainedVersionLocker) Lock(ctx context.Context, courseID string) (func(), error) {
	unlocks := make([]func(), 0, len(c))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}

	for _, l := range c {
		unlock, err := l.Lock(ctx, courseID)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

// isLockBusy 锁竞争失败（区别于 Redis 故障）
func isLockBusy(err error) bool {
	return errors.Is(err, pkgerrors.ErrLockBusy)
}
