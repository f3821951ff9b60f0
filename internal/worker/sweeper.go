package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/cache"
	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
)

// ErrSweepInProgress - предыдущий запуск ещё не завершился.
var ErrSweepInProgress = errors.New("sweep already in progress")

// Sweeper периодически удаляет задачи старше срока хранения у всех пользователей.
type Sweeper struct {
	tasks     repo.TaskRepository
	tx        repo.Transactor
	cache     cache.TaskCache
	logger    *zap.Logger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time

	running sync.Mutex
	cron    *cron.Cron
}

func NewSweeper(
	tasks repo.TaskRepository,
	tx repo.Transactor,
	taskCache cache.TaskCache,
	logger *zap.Logger,
	retention, interval time.Duration,
) *Sweeper {
	return &Sweeper{
		tasks:     tasks,
		tx:        tx,
		cache:     taskCache,
		logger:    logger,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Sweep удаляет задачи, созданные раньше now - retention, в отдельной транзакции.
// Одновременно выполняется не больше одного запуска.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	if !s.running.TryLock() {
		return 0, ErrSweepInProgress
	}
	defer s.running.Unlock()

	threshold := now.Add(-s.retention)

	var deleted int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.tasks.DeleteCreatedBefore(ctx, threshold)
		return err
	})
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		if err := s.cache.Flush(ctx); err != nil {
			s.logger.Warn("task cache flush failed", zap.Error(err))
		}
	}

	s.logger.Info("stale tasks removed",
		zap.Int64("deleted", deleted),
		zap.Time("threshold", threshold),
	)
	return deleted, nil
}

// Start запускает расписание. Ошибки плановых запусков только логируются.
func (s *Sweeper) Start(ctx context.Context) error {
	logger := cronLogger{s.logger.Sugar()}
	s.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() { s.runScheduled(ctx) }); err != nil {
		return fmt.Errorf("schedule sweeper %q: %w", spec, err)
	}

	s.logger.Info("Starting retention sweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("retention", s.retention),
	)
	s.cron.Start()
	return nil
}

// Stop останавливает расписание и дожидается текущего запуска.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	s.logger.Info("Stopping retention sweeper...")
	<-s.cron.Stop().Done()
	s.logger.Info("Retention sweeper stopped")
}

func (s *Sweeper) runScheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.Sweep(ctx, s.now()); err != nil {
		if errors.Is(err, ErrSweepInProgress) {
			s.logger.Warn("sweep skipped: previous run still active")
			return
		}
		s.logger.Error("sweep failed", zap.Error(err))
	}
}

// cronLogger направляет служебные сообщения cron в zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
