package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Each mail worker parks a connection in BLPOP; the rest of the pool serves
// auth, rate limiting and publishes.
const queuePoolHeadroom = 10

// RedisClients separates blocking queue traffic (BLPOP on queue:mail) and
// long-lived pub/sub subscriptions from ordinary key/value calls.
type RedisClients struct {
	Queue  *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(redisURL string, mailWorkers int) (*RedisClients, error) {
	queueOpt, pubsubOpt, err := redisOptions(redisURL, mailWorkers)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	queueClient := redis.NewClient(queueOpt)
	if err := queueClient.Ping(ctx).Err(); err != nil {
		queueClient.Close()
		return nil, fmt.Errorf("failed to ping Redis (queue): %w", err)
	}

	pubsubClient := redis.NewClient(pubsubOpt)
	if err := pubsubClient.Ping(ctx).Err(); err != nil {
		queueClient.Close()
		pubsubClient.Close()
		return nil, fmt.Errorf("failed to ping Redis (pubsub): %w", err)
	}

	return &RedisClients{
		Queue:  queueClient,
		PubSub: pubsubClient,
	}, nil
}

func redisOptions(redisURL string, mailWorkers int) (*redis.Options, *redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if mailWorkers < 1 {
		mailWorkers = 1
	}

	queueOpt := *opt
	queueOpt.ClientName = "lms-queue"
	if floor := mailWorkers + queuePoolHeadroom; queueOpt.PoolSize < floor {
		queueOpt.PoolSize = floor
	}

	pubsubOpt := *opt
	pubsubOpt.ClientName = "lms-pubsub"

	return &queueOpt, &pubsubOpt, nil
}

func (r *RedisClients) Close() {
	r.Queue.Close()
	r.PubSub.Close()
}
