package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/seatgenie/library/internal/entities"
)

// OverdueCounter counts open loans that are past due.
type OverdueCounter interface {
	CountOverdue(ctx context.Context, asOf time.Time) (loans int64, books int64, err error)
}

// ScanOverdueLoansTask counts overdue loans as of AsOf (now when zero) and
// records the result in the audit log.
type ScanOverdueLoansTask struct {
	AsOf time.Time `json:"as_of,omitempty"`
}

// Config returns the queue configuration for overdue scans.
func (t ScanOverdueLoansTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        TypeScanOverdueLoans,
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ScanOverdueLoansProcessor creates a processor function for ScanOverdueLoansTask.
func ScanOverdueLoansProcessor(counter OverdueCounter, recorder Recorder) backlite.QueueProcessor[ScanOverdueLoansTask] {
	return func(ctx context.Context, task ScanOverdueLoansTask) error {
		if counter == nil {
			return fmt.Errorf("overdue counter not configured")
		}

		asOf := task.AsOf
		if asOf.IsZero() {
			asOf = time.Now()
		}
		asOf = asOf.UTC()

		loans, books, err := counter.CountOverdue(ctx, asOf)
		if recorder != nil {
			recorder.LogTask(
				entities.AuditEventOverdueScan,
				TypeScanOverdueLoans,
				fmt.Sprintf("%d overdue loans holding %d books", loans, books),
				map[string]any{"loans": loans, "books": books, "as_of": asOf.Format(time.RFC3339)},
				err,
			)
		}
		if err != nil {
			return fmt.Errorf("scan overdue loans: %w", err)
		}

		if loans > 0 {
			log.Printf("[TASK] %d overdue loans holding %d books as of %s", loans, books, asOf.Format(time.RFC3339))
		}
		return nil
	}
}

// NewScanOverdueLoansQueue creates a backlite queue for overdue scans.
func NewScanOverdueLoansQueue(counter OverdueCounter, recorder Recorder) backlite.Queue {
	return backlite.NewQueue(ScanOverdueLoansProcessor(counter, recorder))
}
