package relations

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	keySystemlog    = "warren:systemlog_list"
	systemlogMaxLen = 1000
)

// LogType labels a moderation event.
type LogType string

// Moderation event kinds.
const (
	LogAdminDelete LogType = "AdminDelete"
	LogReport      LogType = "Report"
	LogBan         LogType = "Ban"
)

// Systemlog is one public moderation-log entry.
type Systemlog struct {
	UserHash   string    `json:"user_hash"`
	ActionType LogType   `json:"action_type"`
	Target     string    `json:"target"`
	Detail     string    `json:"detail"`
	Time       time.Time `json:"time"`
}

// Create prepends the entry to the capped system log.
func (s *Systemlog) Create(ctx context.Context, rdb *redis.Client) error {
	l, err := rdb.LLen(ctx, keySystemlog).Result()
	if err != nil {
		return err
	}
	if l > systemlogMaxLen {
		if err := rdb.LTrim(ctx, keySystemlog, 0, systemlogMaxLen-1).Err(); err != nil {
			return err
		}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, keySystemlog, data).Err()
}

// ListSystemlog reads the newest entries, most recent first.
func ListSystemlog(ctx context.Context, rdb *redis.Client, limit int64) ([]Systemlog, error) {
	rows, err := rdb.LRange(ctx, keySystemlog, 0, limit).Result()
	if err != nil {
		return nil, err
	}
	logs := make([]Systemlog, 0, len(rows))
	for _, row := range rows {
		var entry Systemlog
		if err := json.Unmarshal([]byte(row), &entry); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, nil
}
