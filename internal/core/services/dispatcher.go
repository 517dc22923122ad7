package services

import (
	"context"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/rs/zerolog/log"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/ports/driven"
	"github.com/extindex/extindex/internal/core/ports/driving"
)

const (
	// claimInterval is how long a worker sleeps when the queue is empty.
	claimInterval = 2 * time.Second

	// fanoutInterval schedules the periodic refresh of repositories without
	// a linked owner account. Everyone else is refreshed by webhooks.
	fanoutInterval = 24 * time.Hour
)

// DispatcherService runs queued ingestion tasks on a fixed worker pool.
// Tasks are at-least-once: a failed attempt is rescheduled with exponential
// backoff until the attempt ceiling, then marked failed.
type DispatcherService struct {
	tasks   driven.TaskStore
	repos   driven.RepositoryStore
	updater driving.Updater
	workers int

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewDispatcher creates a dispatcher with the given pool size.
func NewDispatcher(
	tasks driven.TaskStore,
	repos driven.RepositoryStore,
	updater driving.Updater,
	workers int,
) *DispatcherService {
	if workers < 1 {
		workers = 1
	}
	return &DispatcherService{
		tasks:   tasks,
		repos:   repos,
		updater: updater,
		workers: workers,
		stop:    make(chan struct{}),
		now:     time.Now,
	}
}

// Start launches the workers and the fan-out ticker. It returns immediately;
// the pool runs until the context is cancelled or Stop is called.
func (d *DispatcherService) Start(ctx context.Context) error {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	d.wg.Add(1)
	go d.fanoutLoop(ctx)

	log.Info().Int("workers", d.workers).Msg("dispatcher started")
	return nil
}

// Stop shuts the pool down and waits for in-flight tasks to finish.
func (d *DispatcherService) Stop() error {
	d.stopOnce.Do(func() { close(d.stop) })
	d.wg.Wait()
	return nil
}

func (d *DispatcherService) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		default:
		}

		task, err := d.tasks.Claim(ctx, d.now())
		if err != nil {
			log.Warn().Err(err).Int("worker", id).Msg("task claim failed")
			d.sleep(ctx, claimInterval)
			continue
		}
		if task == nil {
			d.sleep(ctx, claimInterval)
			continue
		}
		d.run(ctx, task)
	}
}

// run executes one claimed task and settles its queue state.
func (d *DispatcherService) run(ctx context.Context, task *domain.Task) {
	err := d.execute(ctx, task)
	if err == nil {
		if err := d.tasks.Finish(ctx, task.ID); err != nil {
			log.Warn().Err(err).Str("task", task.ID).Msg("finishing task failed")
		}
		return
	}

	attempts := task.Attempts + 1
	if attempts >= domain.MaxTaskAttempts {
		log.Error().Err(err).
			Str("task", task.ID).
			Str("kind", string(task.Kind)).
			Int64("repository_id", task.RepositoryID).
			Int("attempts", attempts).
			Msg("task failed permanently")
		if err := d.tasks.Fail(ctx, task.ID, err.Error()); err != nil {
			log.Warn().Err(err).Str("task", task.ID).Msg("marking task failed failed")
		}
		return
	}

	delay := retryDelay(attempts)
	log.Warn().Err(err).
		Str("task", task.ID).
		Str("kind", string(task.Kind)).
		Int("attempt", attempts).
		Dur("retry_in", delay).
		Msg("task attempt failed")
	if err := d.tasks.Reschedule(ctx, task.ID, d.now().Add(delay), attempts, err.Error()); err != nil {
		log.Warn().Err(err).Str("task", task.ID).Msg("rescheduling task failed")
	}
}

func (d *DispatcherService) execute(ctx context.Context, task *domain.Task) error {
	switch task.Kind {
	case domain.TaskUpdate:
		return d.updater.Update(ctx, task.RepositoryID)
	case domain.TaskUpdateStats:
		return d.updater.UpdateStats(ctx, task.RepositoryID)
	case domain.TaskSubscribe:
		return d.updater.Subscribe(ctx, task.RepositoryID)
	default:
		log.Error().Str("task", task.ID).Str("kind", string(task.Kind)).Msg("unknown task kind dropped")
		return nil
	}
}

// fanoutLoop enqueues a refresh for every repository without a linked owner
// once per interval. Webhooks cover the linked ones.
func (d *DispatcherService) fanoutLoop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(fanoutInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case <-ticker.C:
			d.fanout(ctx)
		}
	}
}

func (d *DispatcherService) fanout(ctx context.Context) {
	repos, err := d.repos.ListUnlinked(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("fan-out listing failed")
		return
	}
	for _, repo := range repos {
		if _, err := d.tasks.Enqueue(ctx, domain.TaskUpdate, repo.ID); err != nil {
			log.Warn().Err(err).Str("repo", repo.FullName()).Msg("fan-out enqueue failed")
		}
	}
	log.Info().Int("repositories", len(repos)).Msg("fan-out scheduled")
}

func (d *DispatcherService) sleep(ctx context.Context, dur time.Duration) {
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-d.stop:
	case <-timer.C:
	}
}

// retryDelay computes the backoff before the given attempt number re-runs.
func retryDelay(attempt int) time.Duration {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Minute
	policy.MaxInterval = time.Hour
	policy.RandomizationFactor = 0.2
	policy.MaxElapsedTime = 0
	policy.Reset()

	d := policy.NextBackOff()
	for i := 1; i < attempt; i++ {
		d = policy.NextBackOff()
	}
	return d
}
