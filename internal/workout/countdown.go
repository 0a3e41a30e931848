package workout

import (
	"alcyxob/fittrack/internal/domain"
	"context"
	"sync"
	"time"
)

// Countdown is a rest timer. The remaining time is derived from the start
// instant, so nothing ticks unless somebody watches it.
type Countdown struct {
	PlanExerciseID string
	ExerciseID     string
	Seconds        int
	StartedAt      time.Time

	now  Clock
	tick time.Duration

	once sync.Once
	done chan struct{}
}

func newCountdown(planned domain.WorkoutPlanExercise, now Clock, tick time.Duration) *Countdown {
	return &Countdown{
		PlanExerciseID: planned.ID,
		ExerciseID:     planned.ExerciseID,
		Seconds:        max(planned.RestSeconds, 0),
		StartedAt:      now(),
		now:            now,
		tick:           tick,
		done:           make(chan struct{}),
	}
}

// Remaining returns the whole seconds left, 0 once over or replaced.
func (c *Countdown) Remaining() int {
	select {
	case <-c.done:
		return 0
	default:
	}
	elapsed := int(c.now().Sub(c.StartedAt) / time.Second)
	return max(c.Seconds-elapsed, 0)
}

// Resting reports whether the countdown is still running.
func (c *Countdown) Resting() bool {
	return c.Remaining() > 0
}

// Watch emits the remaining seconds every time it changes, starting with the
// current value, and closes the channel after emitting 0. It stops early when
// ctx is done.
func (c *Countdown) Watch(ctx context.Context) <-chan int {
	out := make(chan int)
	go func() {
		defer close(out)

		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()

		last := -1
		for {
			if r := c.Remaining(); r != last {
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
				if r == 0 {
					return
				}
				last = r
			}

			select {
			case <-ticker.C:
			case <-c.done:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (c *Countdown) cancel() {
	c.once.Do(func() { close(c.done) })
}
