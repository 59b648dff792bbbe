package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haytac/tocstrip/pkg/interfaces"
)

const idleInterval = 24 * time.Hour

var minInterval = time.Second

// ScheduledTask represents a task in the priority queue.
type ScheduledTask struct {
	Job      *interfaces.Job
	NextRun  time.Time
	index    int // Index in the heap.
	taskFunc func(ctx context.Context, j *interfaces.Job)
	running  bool
}

// PriorityQueue implements heap.Interface and holds ScheduledTasks.
type PriorityQueue []*ScheduledTask

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	return pq[i].NextRun.Before(pq[j].NextRun)
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

// Push adds an item to the priority queue.
func (pq *PriorityQueue) Push(x interface{}) {
	item := x.(*ScheduledTask)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

// Pop removes and returns the item with the earliest NextRun time.
func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// RescanScheduler re-runs site passes on fixed intervals.
type RescanScheduler struct {
	pq      PriorityQueue
	mu      sync.Mutex
	wake    chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
	now     func() time.Time
}

// NewRescanScheduler creates a new scheduler.
func NewRescanScheduler() *RescanScheduler {
	return &RescanScheduler{
		pq:   make(PriorityQueue, 0),
		wake: make(chan struct{}, 1),
		now:  time.Now,
	}
}

// Add schedules job. Its first run happens one interval after LastRun, or
// one interval from now when it never ran.
func (s *RescanScheduler) Add(job *interfaces.Job, taskFunc func(ctx context.Context, j *interfaces.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.Interval < minInterval {
		log.Warn().Str("job", job.Name).Dur("interval", job.Interval).Dur("min", minInterval).Msg("Rescan interval too small, raising it")
		job.Interval = minInterval
	}

	now := s.now()
	nextRun := now.Add(job.Interval)
	if job.LastRun != nil {
		nextRun = job.LastRun.Add(job.Interval)
		if nextRun.Before(now) {
			nextRun = now
		}
	}

	heap.Push(&s.pq, &ScheduledTask{Job: job, NextRun: nextRun, taskFunc: taskFunc})
	log.Info().Str("job", job.Name).Str("root", job.Root).Time("first_run_at", nextRun).Msg("Rescan scheduled")

	s.poke()
	return nil
}

// Len returns the number of scheduled jobs.
func (s *RescanScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pq.Len()
}

// Start begins the scheduler loop. It stops when ctx is done or Stop is
// called. Tasks receive a context that is cancelled on either.
func (s *RescanScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	stopCh, done := s.stopCh, s.done
	s.mu.Unlock()

	log.Info().Msg("Rescan scheduler started")
	go func() {
		defer close(done)
		taskCtx, cancelTasks := context.WithCancel(ctx)
		defer cancelTasks()
		timer := time.NewTimer(s.nextDelay())
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				cancelTasks()
				s.shutdown()
				return
			case <-stopCh:
				cancelTasks()
				s.shutdown()
				return
			case <-s.wake:
			case <-timer.C:
				s.runPendingTasks(taskCtx)
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.nextDelay())
		}
	}()
}

func (s *RescanScheduler) shutdown() {
	log.Info().Msg("Rescan scheduler stopping, waiting for running passes")
	s.wg.Wait()
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	log.Info().Msg("Rescan scheduler stopped")
}

func (s *RescanScheduler) runPendingTasks(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for s.pq.Len() > 0 {
		task := s.pq[0]
		if task.NextRun.After(now) {
			break
		}
		heap.Pop(&s.pq)

		if task.running {
			log.Debug().Str("job", task.Job.Name).Msg("Previous rescan still running, skipping this tick")
		} else {
			task.running = true
			ran := now
			task.Job.LastRun = &ran
			s.wg.Add(1)
			go func(t *ScheduledTask) {
				defer s.wg.Done()
				t.taskFunc(ctx, t.Job)
				s.mu.Lock()
				t.running = false
				s.mu.Unlock()
			}(task)
		}

		task.NextRun = now.Add(task.Job.Interval)
		heap.Push(&s.pq, task)
	}
}

// nextDelay must not be called with s.mu held.
func (s *RescanScheduler) nextDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pq.Len() == 0 {
		return idleInterval
	}
	d := s.pq[0].NextRun.Sub(s.now())
	if d < 0 {
		d = 0
	}
	return d
}

func (s *RescanScheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Stop halts the loop, cancels running passes and waits for them to return.
func (s *RescanScheduler) Stop() {
	s.mu.Lock()
	if !s.running || s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	stopCh, done := s.stopCh, s.done
	s.stopCh = nil
	s.mu.Unlock()

	close(stopCh)
	<-done
}
