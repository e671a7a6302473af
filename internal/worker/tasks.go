package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskNotificationFanout = "notification:fanout"
	TaskLeaderboardSync    = "leaderboard:sync"
)

// Package-level Asynq client (singleton)
var client *asynq.Client

// InitClient initializes the global Asynq client for task enqueueing.
// Must be called before any EnqueueX functions.
func InitClient(redisURL string) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return err
	}

	client = asynq.NewClient(opt)
	return nil
}

// CloseClient closes the Asynq client connection gracefully.
func CloseClient() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// EnqueueAnnouncementFanout enqueues a notification fan-out task for the
// given announcement ID. The task retries up to 3 times and is retained
// for 24 hours after completion.
func EnqueueAnnouncementFanout(announcementID uint) error {
	payload, err := json.Marshal(map[string]uint{
		"announcement_id": announcementID,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		TaskNotificationFanout,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	_, err = client.Enqueue(task)
	return err
}

// EnqueueLeaderboardSync enqueues an immediate CRM score sync for one
// leaderboard. The scheduler enqueues the all-boards variant on a cron;
// this one exists for manual kicks from the admin API.
func EnqueueLeaderboardSync(leaderboardID uint) error {
	payload, err := json.Marshal(map[string]uint{
		"leaderboard_id": leaderboardID,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		TaskLeaderboardSync,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	_, err = client.Enqueue(task)
	return err
}
