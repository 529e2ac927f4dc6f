package publisher

import (
	"context"

	"github.com/gmontoya2483/Shushme/module/core/domain"
)

type ReportPublisher interface {
	PublishReport(ctx context.Context, r *domain.Report) error
}
