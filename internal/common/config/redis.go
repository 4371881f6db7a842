package config

import (
	"time"

	"github.com/go-redis/redis"
)

// RedisConfig describes a single node, a cluster seed list or, with MasterName set, a sentinel group.
type RedisConfig struct {
	Addrs      []string `validate:"required"`
	MasterName string
	DB         int `validate:"gte=0,lte=16"`
	Password   string

	PoolSize    int `validate:"required"`
	PoolTimeout time.Duration

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration `validate:"gtefield=MinRetryBackoff"`
}

func (rc RedisConfig) AsUniversalOptions() *redis.UniversalOptions {
	return &redis.UniversalOptions{
		Addrs:      rc.Addrs,
		MasterName: rc.MasterName,
		DB:         rc.DB,
		Password:   rc.Password,

		PoolSize:    rc.PoolSize,
		PoolTimeout: rc.PoolTimeout,

		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,

		MaxRetries:      rc.MaxRetries,
		MinRetryBackoff: rc.MinRetryBackoff,
		MaxRetryBackoff: rc.MaxRetryBackoff,
	}
}
