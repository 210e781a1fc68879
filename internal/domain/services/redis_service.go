package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"hoa-vote-service/internal/infrastructure/config"
)

// InterfaceLoginLimiter 登录失败次数限制
type InterfaceLoginLimiter interface {
	IsLocked(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) (int64, error)
	Reset(ctx context.Context, username string) error
}

// RedisLoginLimiter 基于 Redis 计数的登录限制，键在锁定时长后过期
type RedisLoginLimiter struct {
	Client      *redis.Client
	MaxFailures int64
	LockFor     time.Duration
}

// NewRedisClient 根据配置创建 Redis 客户端，未配置地址时返回 nil
func NewRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.RedisEnabled() {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// NewLoginLimiter 创建登录限制器；client 为 nil 时不做限制
func NewLoginLimiter(client *redis.Client, cfg *config.Config) InterfaceLoginLimiter {
	if client == nil {
		return noopLoginLimiter{}
	}
	maxFailures := int64(cfg.LoginMaxFailures)
	if maxFailures <= 0 {
		maxFailures = 5
	}
	lockMinutes := cfg.LoginLockMinutes
	if lockMinutes <= 0 {
		lockMinutes = 15
	}
	return &RedisLoginLimiter{
		Client:      client,
		MaxFailures: maxFailures,
		LockFor:     time.Duration(lockMinutes) * time.Minute,
	}
}

func loginFailureKey(username string) string {
	return "login_fail:" + username
}

// 1 IsLocked 失败次数达到上限即视为锁定
func (l *RedisLoginLimiter) IsLocked(ctx context.Context, username string) (bool, error) {
	count, err := l.Client.Get(ctx, loginFailureKey(username)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count >= l.MaxFailures, nil
}

// 2 RecordFailure 记录一次失败并刷新过期时间，返回累计次数
func (l *RedisLoginLimiter) RecordFailure(ctx context.Context, username string) (int64, error) {
	key := loginFailureKey(username)
	var incr *redis.IntCmd
	_, err := l.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.LockFor)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// 3 Reset 登录成功后清除计数
func (l *RedisLoginLimiter) Reset(ctx context.Context, username string) error {
	return l.Client.Del(ctx, loginFailureKey(username)).Err()
}

type noopLoginLimiter struct{}

func (noopLoginLimiter) IsLocked(context.Context, string) (bool, error)       { return false, nil }
func (noopLoginLimiter) RecordFailure(context.Context, string) (int64, error) { return 0, nil }
func (noopLoginLimiter) Reset(context.Context, string) error                  { return nil }
