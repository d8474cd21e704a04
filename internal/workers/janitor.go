package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper is anything that can drop its expired entries.
type Sweeper interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// Janitor runs Sweeper.CleanupExpired on a fixed interval until ctx ends.
type Janitor struct {
	Sweeper  Sweeper
	Interval time.Duration
	Logger   *logrus.Logger
}

func (j *Janitor) Run(ctx context.Context) {
	if j.Interval <= 0 {
		j.Interval = 5 * time.Minute
	}
	if j.Logger == nil {
		j.Logger = logrus.New()
	}

	t := time.NewTicker(j.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	sctx, cancel := context.WithTimeout(ctx, j.Interval)
	defer cancel()

	n, err := j.Sweeper.CleanupExpired(sctx)
	if err != nil {
		j.Logger.WithError(err).Warn("session sweep failed")
		return
	}
	j.Logger.WithField("removed", n).Debug("session sweep done")
}
