package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	apporder "github.com/shopsync/backend/internal/application/order"
	"github.com/shopsync/backend/internal/domain/shared"
)

// SiteSweeper sweeps the orders of one site
type SiteSweeper interface {
	SyncSiteOrders(ctx context.Context, site shared.SiteCode, opts apporder.SweepOptions) (*apporder.SweepReport, error)
}

// SweepWatermarks remembers when each site was last swept successfully
type SweepWatermarks interface {
	LastSuccess(site shared.SiteCode) (time.Time, bool)
	RecordSuccess(site shared.SiteCode, at time.Time)
}

// ---------------------------------------------------------------------------
// SweepExecutorImpl
// ---------------------------------------------------------------------------

// SweepExecutorImpl implements SweepExecutor on top of the sweep service
type SweepExecutorImpl struct {
	sweeper    SiteSweeper
	watermarks SweepWatermarks
	perPage    int
	logger     *zap.Logger
}

// NewSweepExecutor creates a new sweep executor
func NewSweepExecutor(sweeper SiteSweeper, watermarks SweepWatermarks, perPage int, logger *zap.Logger) *SweepExecutorImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepExecutorImpl{
		sweeper:    sweeper,
		watermarks: watermarks,
		perPage:    perPage,
		logger:     logger,
	}
}

// Execute sweeps the job's site. The watermark advances to the job start
// time only when no order failed, so failed rows are fetched again by the
// next incremental sweep.
func (e *SweepExecutorImpl) Execute(ctx context.Context, job *SweepJob) error {
	startedAt := time.Now().UTC()
	if job.StartedAt != nil {
		startedAt = *job.StartedAt
	}

	report, err := e.sweeper.SyncSiteOrders(ctx, job.Site, apporder.SweepOptions{
		Status:        job.OrderStatus,
		ModifiedAfter: job.ModifiedAfter,
		PerPage:       e.perPage,
	})
	if err != nil {
		return err
	}

	job.Complete(report.Fetched, report.Applied, report.Failed, report.FailedBatches, report.Truncated)

	if job.State == SweepJobStatusSuccess && !report.Truncated {
		if e.watermarks != nil {
			e.watermarks.RecordSuccess(job.Site, startedAt)
		}
	} else {
		e.logger.Warn("Order sweep incomplete, watermark kept",
			zap.String("job_id", job.ID.String()),
			zap.String("site", job.Site.String()),
			zap.String("status", string(job.State)),
			zap.Bool("truncated", report.Truncated),
		)
	}
	return nil
}

var _ SweepExecutor = (*SweepExecutorImpl)(nil)
