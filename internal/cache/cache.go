// Package cache кэширует списки задач пользователя в Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
)

const (
	keyPrefix = "tasks:user:"
	// globalGenKey увеличивается при Flush и входит в версию каждого пользователя.
	globalGenKey = "tasks:gen"
)

// TaskCache - кэш результатов TaskRepo.List.
//
// Списки хранятся под версией, прочитанной до запроса к базе. Invalidate и Flush
// только увеличивают версию, поэтому запись, начатая до инвалидации, попадает
// под ключ, который больше никто не читает, и истекает по TTL.
type TaskCache interface {
	// Version возвращает текущую версию списков пользователя.
	Version(ctx context.Context, userID int64) (string, error)
	// GetList возвращает ok=false при промахе.
	GetList(ctx context.Context, userID int64, version string, filter model.TaskFilter) ([]model.Task, bool, error)
	SetList(ctx context.Context, userID int64, version string, filter model.TaskFilter, tasks []model.Task) error
	// Invalidate делает недействительными все списки пользователя.
	Invalidate(ctx context.Context, userID int64) error
	// Flush делает недействительными списки всех пользователей.
	Flush(ctx context.Context) error
}

type RedisTaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisTaskCache(rdb *redis.Client, ttl time.Duration) *RedisTaskCache {
	return &RedisTaskCache{rdb: rdb, ttl: ttl}
}

// Version - "<глобальное поколение>.<поколение пользователя>", оба читаются одним MGET.
func (c *RedisTaskCache) Version(ctx context.Context, userID int64) (string, error) {
	vals, err := c.rdb.MGet(ctx, globalGenKey, userGenKey(userID)).Result()
	if err != nil {
		return "", err
	}
	return generation(vals[0]) + "." + generation(vals[1]), nil
}

func (c *RedisTaskCache) GetList(ctx context.Context, userID int64, version string, filter model.TaskFilter) ([]model.Task, bool, error) {
	b, err := c.rdb.Get(ctx, listKey(userID, version, filter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var tasks []model.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		return nil, false, err
	}
	return tasks, true, nil
}

func (c *RedisTaskCache) SetList(ctx context.Context, userID int64, version string, filter model.TaskFilter, tasks []model.Task) error {
	b, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, listKey(userID, version, filter), b, c.ttl).Err()
}

func (c *RedisTaskCache) Invalidate(ctx context.Context, userID int64) error {
	return c.rdb.Incr(ctx, userGenKey(userID)).Err()
}

func (c *RedisTaskCache) Flush(ctx context.Context) error {
	return c.rdb.Incr(ctx, globalGenKey).Err()
}

func generation(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return "0"
	}
	return s
}

func userPrefix(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10) + ":"
}

func userGenKey(userID int64) string {
	return userPrefix(userID) + "gen"
}

// listKey кодирует версию и фильтр в ключ: tasks:user:<id>:v=<version>:s=<status>:c=<category>:p=<priority>.
func listKey(userID int64, version string, filter model.TaskFilter) string {
	var b strings.Builder
	b.WriteString(userPrefix(userID))
	b.WriteString("v=")
	b.WriteString(version)
	b.WriteString(":s=")
	if filter.Status != nil {
		b.WriteString(string(*filter.Status))
	}
	b.WriteString(":c=")
	if filter.CategoryID != nil {
		b.WriteString(strconv.FormatInt(*filter.CategoryID, 10))
	}
	b.WriteString(":p=")
	if filter.Priority != nil {
		b.WriteString(string(*filter.Priority))
	}
	return b.String()
}

// Noop используется, когда Redis не настроен: всегда промах.
type Noop struct{}

func (Noop) Version(context.Context, int64) (string, error) { return "", nil }

func (Noop) GetList(context.Context, int64, string, model.TaskFilter) ([]model.Task, bool, error) {
	return nil, false, nil
}

func (Noop) SetList(context.Context, int64, string, model.TaskFilter, []model.Task) error { return nil }

func (Noop) Invalidate(context.Context, int64) error { return nil }

func (Noop) Flush(context.Context) error { return nil }

// Connect открывает клиент по redis:// URL и проверяет соединение.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
