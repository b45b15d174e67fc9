package emergency

import (
	"context"

	"github.com/medatlas/medatlas/internal/domain/hospital"
)

// AlertRepository scans the store for facilities breaching any shortage
// threshold.
type AlertRepository interface {
	FindBreaching(ctx context.Context) ([]hospital.Hospital, error)
}
