// Package job holds the background jobs scheduled by the web server.
package job

import (
	"context"
	"time"

	"github.com/prestamos-sa/prestamos/logger"
	"github.com/prestamos-sa/prestamos/util/common"

	"go.uber.org/atomic"
)

// overdueRunTimeout bounds a single pass so a stuck database cannot pile up runs.
const overdueRunTimeout = 30 * time.Second

// OverdueMarker flags loans that passed their due date.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

// OverdueLoanJob moves active loans past their due date to the overdue status.
type OverdueLoanJob struct {
	loans   OverdueMarker
	running atomic.Bool
}

func NewOverdueLoanJob(loans OverdueMarker) *OverdueLoanJob {
	return &OverdueLoanJob{loans: loans}
}

// Run implements cron.Job. A run that starts while the previous one is still
// in progress is skipped.
func (j *OverdueLoanJob) Run() {
	if !j.running.CompareAndSwap(false, true) {
		logger.Debug("overdue loan check still running, skipping")
		return
	}
	defer j.running.Store(false)
	defer common.Recover("overdue loan check")

	ctx, cancel := context.WithTimeout(context.Background(), overdueRunTimeout)
	defer cancel()

	n, err := j.loans.MarkOverdue(ctx)
	if err != nil {
		logger.Warning("overdue loan check failed:", err)
		return
	}
	if n > 0 {
		logger.Infof("marked %d loan(s) as overdue", n)
	}
}
