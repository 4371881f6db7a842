package config

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hookedConfig struct {
	Names    []string
	Interval time.Duration
}

func TestCustomHooks(t *testing.T) {
	v := viper.New()
	v.Set("names", "performance,talos_data")
	v.Set("interval", "750ms")

	var config hookedConfig
	err := v.Unmarshal(&config, CustomHooks...)
	require.NoError(t, err)

	assert.Equal(t, []string{"performance", "talos_data"}, config.Names)
	assert.Equal(t, 750*time.Millisecond, config.Interval)
}

func TestRedisConfig_AsUniversalOptions(t *testing.T) {
	rc := RedisConfig{
		Addrs:           []string{"localhost:6379"},
		DB:              2,
		MinRetryBackoff: time.Millisecond,
		MaxRetryBackoff: time.Second,
		PoolSize:        10,
	}
	opts := rc.AsUniversalOptions()
	assert.Equal(t, rc.Addrs, opts.Addrs)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, time.Millisecond, opts.MinRetryBackoff)
	assert.Equal(t, time.Second, opts.MaxRetryBackoff)
	assert.Equal(t, 10, opts.PoolSize)
}

func TestRedisConfig_Validation(t *testing.T) {
	err := validator.New().Struct(RedisConfig{DB: 20})
	require.Error(t, err)
	var fields []string
	for _, fieldErr := range err.(validator.ValidationErrors) {
		fields = append(fields, fieldErr.Field())
	}
	assert.ElementsMatch(t, []string{"Addrs", "DB", "PoolSize"}, fields)

	err = validator.New().Struct(RedisConfig{
		Addrs:           []string{"localhost:6379"},
		PoolSize:        1,
		MinRetryBackoff: time.Second,
		MaxRetryBackoff: time.Millisecond,
	})
	require.Error(t, err)
	assert.Equal(t, "MaxRetryBackoff", err.(validator.ValidationErrors)[0].Field())

	// Only checks that logging a real validation error doesn't panic.
	LogValidationErrors(err)
}

func TestStripPrefix(t *testing.T) {
	assert.Equal(t, "Postgres.Connection", stripPrefix("ArtifactIngesterConfiguration.Postgres.Connection"))
	assert.Equal(t, "Port", stripPrefix("Port"))
}
