package streams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventConsumer consumes rank-change events from Redis Streams with a
// consumer group, so multiple worker processes share the stream.
type EventConsumer struct {
	rdb          *redis.Client
	groupName    string
	consumerName string
}

// NewEventConsumer creates an EventConsumer and ensures the consumer
// group exists.
func NewEventConsumer(redisURL, consumerName string) (*EventConsumer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	// Read timeout must exceed the XReadGroup Block duration (5s)
	// to avoid spurious i/o timeout errors on idle streams.
	opts.ReadTimeout = 10 * time.Second

	client := redis.NewClient(opts)

	// Start ID "0" means read from the beginning if the group is new.
	err = client.XGroupCreateMkStream(context.Background(), StreamLeaderboardEvents, GroupDashboardWorkers, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &EventConsumer{
		rdb:          client,
		groupName:    GroupDashboardWorkers,
		consumerName: consumerName,
	}, nil
}

// Consume runs a blocking loop handing each decoded event to handler.
// A handler error leaves the message in the pending list for retry.
func (c *EventConsumer) Consume(ctx context.Context, handler func(RankChangeEvent) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupName,
			Consumer: c.consumerName,
			Streams:  []string{StreamLeaderboardEvents, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err == redis.Nil {
			continue
		}
		if err != nil {
			// Blocking reads return a timeout when no messages arrive
			// within the Block duration. Normal, not an error.
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			slog.Error("Failed to read from stream", "error", err)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				payloadStr, ok := message.Values["payload"].(string)
				if !ok {
					slog.Error("Invalid message payload", "message_id", message.ID)
					c.ack(ctx, message.ID)
					continue
				}

				var event RankChangeEvent
				if err := json.Unmarshal([]byte(payloadStr), &event); err != nil {
					slog.Error("Failed to unmarshal event", "error", err, "message_id", message.ID)
					c.ack(ctx, message.ID)
					continue
				}

				if err := handler(event); err != nil {
					slog.Error("Handler failed", "error", err, "entry_id", event.EntryID)
					// Message stays in PEL for retry, don't ACK
					continue
				}

				c.ack(ctx, message.ID)
			}
		}
	}
}

func (c *EventConsumer) ack(ctx context.Context, messageID string) {
	if err := c.rdb.XAck(ctx, StreamLeaderboardEvents, c.groupName, messageID).Err(); err != nil {
		slog.Error("Failed to ack message", "error", err, "message_id", messageID)
	}
}

// Close closes the Redis client connection
func (c *EventConsumer) Close() error {
	return c.rdb.Close()
}
