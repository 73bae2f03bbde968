package db

import (
	"context"
	"fmt"

	"assistant-telegram/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

var Pool *pgxpool.Pool

var Redis *redis.Client

func Init(cfg config.DBConfig) error {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
	var err error
	Pool, err = pgxpool.New(context.Background(), connStr)
	return err
}

func InitRedis(cfg config.RedisConfig) error {
	Redis = redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})
	return Redis.Ping(context.Background()).Err()
}

func Close() {
	if Pool != nil {
		Pool.Close()
	}
	if Redis != nil {
		_ = Redis.Close()
	}
}
