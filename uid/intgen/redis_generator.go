package intgen

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr     string        `cfg:"addr" def:"localhost:6379"`
	Password string        `cfg:"password"`
	DB       int           `cfg:"db"`
	KeyName  string        `cfg:"keyName" def:"persist:uid"`
	Timeout  time.Duration `cfg:"timeout" def:"3s"`
}

// RedisGenerator 多进程共享的主键生成器，高 52 位毫秒时间戳，低 12 位为 redis 中按毫秒计数的序列号
// redis 不可用时退化为进程内时钟，同一进程内仍保证唯一
type RedisGenerator struct {
	client   *redis.Client
	keyName  string
	timeout  time.Duration
	fallback *clock
}

func NewRedisGeneratorWithOptions(options *RedisOptions) *RedisGenerator {
	if options == nil {
		options = &RedisOptions{}
	}
	if options.Addr == "" {
		options.Addr = "localhost:6379"
	}
	if options.KeyName == "" {
		options.KeyName = "persist:uid"
	}
	if options.Timeout == 0 {
		options.Timeout = 3 * time.Second
	}

	return &RedisGenerator{
		client: redis.NewClient(&redis.Options{
			Addr:     options.Addr,
			Password: options.Password,
			DB:       options.DB,
		}),
		keyName:  options.KeyName,
		timeout:  options.Timeout,
		fallback: newClock(0),
	}
}

func (g *RedisGenerator) Generate() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	for {
		timestamp := time.Now().UnixMilli()
		key := g.keyName + ":" + strconv.FormatInt(timestamp, 10)

		sequence, err := g.client.Incr(ctx, key).Result()
		if err != nil {
			ts, seq := g.fallback.next()
			return ts<<sequenceBits | seq
		}
		if sequence == 1 {
			g.client.Expire(ctx, key, 2*time.Second)
		}
		if sequence <= maxSequence+1 {
			return timestamp<<sequenceBits | (sequence - 1)
		}
		// 本毫秒序列号已用尽
		time.Sleep(100 * time.Microsecond)
	}
}

func (g *RedisGenerator) Close() error {
	return g.client.Close()
}
