package timer_test

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/timer"
)

// TestRepeatFiresOncePerPeriodProperty verifies a repeating timer ticked at
// each period boundary fires exactly once per boundary, however many times
// it was rescheduled first.
func TestRepeatFiresOncePerPeriodProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("one fire per boundary", prop.ForAll(
		func(delays []int, periodMs int, ticks int) bool {
			s := timer.NewScheduler[string]()
			for _, d := range delays {
				s.Schedule("owner", 5, time.Duration(d)*time.Millisecond, true, epoch)
			}
			period := time.Duration(periodMs) * time.Millisecond
			s.Schedule("owner", 5, period, true, epoch)
			if s.Len() != 1 {
				return false
			}
			for i := 1; i <= ticks; i++ {
				if len(s.Tick(epoch.Add(time.Duration(i)*period))) != 1 {
					return false
				}
			}
			return s.Len() == 1
		},
		gen.SliceOf(gen.IntRange(1, 5000)),
		gen.IntRange(1, 2000),
		gen.IntRange(1, 50),
	))

	properties.Property("late ticks never fire twice", prop.ForAll(
		func(periodMs int, lateMs []int) bool {
			s := timer.NewScheduler[string]()
			period := time.Duration(periodMs) * time.Millisecond
			s.Schedule("owner", 1, period, true, epoch)
			now := epoch
			for _, late := range lateMs {
				now = now.Add(time.Duration(late) * time.Millisecond)
				fired := s.Tick(now)
				if len(fired) > 1 {
					return false
				}
				next, _ := s.Next()
				if !next.After(now) || next.Sub(epoch)%period != 0 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 1000),
		gen.SliceOf(gen.IntRange(0, 5000)),
	))

	properties.TestingRun(t)
}
