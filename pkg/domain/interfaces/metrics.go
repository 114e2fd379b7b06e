package interfaces

import (
	"time"

	"github.com/secmon-lab/risktree/pkg/domain/model"
)

// MetricsRecorder observes editor activity
type MetricsRecorder interface {
	RecordOperation(op string, err error, elapsed time.Duration)
	RecordTree(totals model.Totals)
}
