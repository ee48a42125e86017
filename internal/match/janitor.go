package match

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

const (
	// RetentionWindow is how long a completed match stays visible so both
	// clients can poll the result.
	RetentionWindow = 1 * time.Hour
	// SweepInterval is how often the janitor runs.
	SweepInterval = 10 * time.Minute
)

// Janitor periodically reclaims completed matches past the retention window.
// Matches stuck in waiting, ready or in_progress are never swept.
type Janitor struct {
	coord *Coordinator
	log   *logrus.Entry
}

// NewJanitor creates a janitor for the given coordinator.
func NewJanitor(coord *Coordinator) *Janitor {
	return &Janitor{
		coord: coord,
		log:   logrus.WithField("component", "janitor"),
	}
}

// Run schedules the sweep and blocks until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(SweepInterval),
		gocron.NewTask(func() {
			j.coord.Sweep(time.Now())
		}),
	)
	if err != nil {
		return err
	}

	sched.Start()
	j.log.WithField("interval", SweepInterval).Info("janitor started")

	<-ctx.Done()
	return sched.Shutdown()
}
