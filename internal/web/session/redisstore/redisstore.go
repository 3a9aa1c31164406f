// Package redisstore implements fiber.Storage on top of go-redis.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	opTimeout = 3 * time.Second
	scanCount = 100
)

// Storage keeps fiber storage entries as redis strings under a key prefix.
type Storage struct {
	rdb    redis.UniversalClient
	prefix string
}

// New creates a storage on rdb. Every key is stored as prefix+key.
func New(rdb redis.UniversalClient, prefix string) *Storage {
	return &Storage{rdb: rdb, prefix: prefix}
}

// NewClient connects to a single redis server.
func NewClient(addr, password string, db int, prefix string) *Storage {
	return New(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), prefix)
}

func ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// Get returns the value of key, or nil when it does not exist.
func (s *Storage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	c, cancel := ctx()
	defer cancel()

	val, err := s.rdb.Get(c, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	return val, err
}

// Set stores val under key. Zero exp keeps the entry until deleted.
func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	c, cancel := ctx()
	defer cancel()

	return s.rdb.Set(c, s.prefix+key, val, exp).Err()
}

// Delete removes key.
func (s *Storage) Delete(key string) error {
	if key == "" {
		return nil
	}

	c, cancel := ctx()
	defer cancel()

	return s.rdb.Del(c, s.prefix+key).Err()
}

// Reset removes every key under the prefix.
func (s *Storage) Reset() error {
	c, cancel := ctx()
	defer cancel()

	iter := s.rdb.Scan(c, 0, s.prefix+"*", scanCount).Iterator()
	for iter.Next(c) {
		if err := s.rdb.Del(c, iter.Val()).Err(); err != nil {
			return err
		}
	}

	return iter.Err()
}

// Close closes the redis client.
func (s *Storage) Close() error {
	return s.rdb.Close()
}
