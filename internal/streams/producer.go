package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/leaderboard"
	"github.com/redis/go-redis/v9"
)

// Publisher publishes rank-change events to Redis Streams. It implements
// leaderboard.EventPublisher.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a new Publisher instance
func NewPublisher(redisURL string) (*Publisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &Publisher{rdb: redis.NewClient(opts)}, nil
}

// PublishRankChanges appends one event per movement to the leaderboard
// event stream.
func (p *Publisher) PublishRankChanges(ctx context.Context, period leaderboard.Period, changes []leaderboard.RankChange) error {
	for _, change := range changes {
		event := RankChangeEvent{
			LeaderboardID: period.LeaderboardID,
			UserID:        change.UserID,
			EntryID:       change.EntryID,
			OldRank:       change.OldRank,
			NewRank:       change.NewRank,
			PeriodStart:   period.Start,
			PeriodEnd:     period.End,
		}

		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		result := p.rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: StreamLeaderboardEvents,
			MaxLen: 10000,
			Approx: true,
			ID:     "*",
			Values: map[string]interface{}{
				"payload":        string(payload),
				"published_at":   time.Now().Unix(),
				"schema_version": SchemaVersionV1,
			},
		})
		if result.Err() != nil {
			return fmt.Errorf("failed to publish to stream: %w", result.Err())
		}
	}

	return nil
}

// Close closes the Redis client connection
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
