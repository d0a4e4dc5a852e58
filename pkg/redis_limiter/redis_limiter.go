package redis_limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// ErrLimitReached 并发槽位已满
var ErrLimitReached = errors.New("concurrency limit reached")

// 获取槽位的脚本：
// 1. 获取当前值
// 2. 如果当前值小于最大并发数，则增加1并设置过期时间，返回新值
// 3. 否则返回当前值加1表示失败
var acquireScript = redis.NewScript(`local current = redis.call('GET', KEYS[1])
if current == false then
	current = 0
else
	current = tonumber(current)
end

if current >= tonumber(ARGV[1]) then
	return current + 1
end

local newCount = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
return newCount`)

// 释放槽位的脚本：减少计数，结果 <= 0 时删除key，否则刷新过期时间
var releaseScript = redis.NewScript(`local count = redis.call('DECR', KEYS[1])
if tonumber(count) <= 0 then
	redis.call('DEL', KEYS[1])
	return 0
else
	redis.call('EXPIRE', KEYS[1], tonumber(ARGV[1]))
	return count
end`)

// RedisLimiter 基于Redis的并发限制器，多个服务实例共享计数
type RedisLimiter struct {
	client        redis.UniversalClient
	maxConcurrent int
	keyPrefix     string
	ttl           time.Duration
	logger        *logrus.Logger
}

// NewRedisLimiter 创建基于Redis的并发限制器
// ttl 用于回收进程异常退出后未释放的槽位
func NewRedisLimiter(client redis.UniversalClient, maxConcurrent int, keyPrefix string, ttl time.Duration, logger *logrus.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:        client,
		maxConcurrent: maxConcurrent,
		keyPrefix:     keyPrefix,
		ttl:           ttl,
		logger:        logger,
	}
}

func (rl *RedisLimiter) ttlSeconds() int {
	if s := int(rl.ttl.Seconds()); s > 0 {
		return s
	}
	return 1
}

// Acquire 获取并发槽位，槽位已满时返回 ErrLimitReached
func (rl *RedisLimiter) Acquire(ctx context.Context, key string) error {
	redisKey := rl.keyPrefix + key

	result, err := acquireScript.Run(ctx, rl.client, []string{redisKey}, rl.maxConcurrent, rl.ttlSeconds()).Int()
	if err != nil {
		return fmt.Errorf("执行Lua脚本失败: %w", err)
	}

	// 检查是否超过了限制
	if result > rl.maxConcurrent {
		rl.logger.WithFields(logrus.Fields{
			"key":     key,
			"current": result - 1,
			"max":     rl.maxConcurrent,
		}).Warn("[RedisLimiter] 槽位已满")
		return ErrLimitReached
	}

	rl.logger.WithFields(logrus.Fields{
		"key":     key,
		"current": result,
		"max":     rl.maxConcurrent,
	}).Debug("[RedisLimiter] 成功获取槽位")
	return nil
}

// Release 释放并发槽位
func (rl *RedisLimiter) Release(ctx context.Context, key string) {
	redisKey := rl.keyPrefix + key

	result, err := releaseScript.Run(ctx, rl.client, []string{redisKey}, rl.ttlSeconds()).Int()
	if err != nil {
		rl.logger.WithError(err).WithField("key", key).Error("[RedisLimiter] 执行Lua脚本失败")
		return
	}

	rl.logger.WithFields(logrus.Fields{
		"key":       key,
		"remaining": result,
	}).Debug("[RedisLimiter] 释放槽位")
}

// GetCurrent 获取当前并发数
func (rl *RedisLimiter) GetCurrent(ctx context.Context, key string) (int, error) {
	current, err := rl.client.Get(ctx, rl.keyPrefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("获取当前并发数失败: %w", err)
	}
	return current, nil
}

// GetMaxConcurrent 获取最大并发数
func (rl *RedisLimiter) GetMaxConcurrent() int {
	return rl.maxConcurrent
}
