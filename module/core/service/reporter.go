package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/gmontoya2483/Shushme/module/core/domain"
)

// Reporter observes finished operations and rejected regions. Report must
// not block for long: it runs on the goroutine that handled the result.
type Reporter interface {
	Report(ctx context.Context, r *domain.Report)
}

// MultiReporter fans a report out to every reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(ctx context.Context, r *domain.Report) {
	for _, rep := range m {
		if rep != nil {
			rep.Report(ctx, r)
		}
	}
}

type LogReporter struct {
	log *zap.Logger
}

func NewLogReporter(log *zap.Logger) *LogReporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogReporter{log: log}
}

func (l *LogReporter) Report(_ context.Context, r *domain.Report) {
	fields := []zap.Field{
		zap.String("kind", string(r.Kind)),
		zap.String("status", string(r.Status)),
		zap.Strings("region_ids", r.RegionIDs),
		zap.Int("desired", r.DesiredCount),
		zap.Int("confirmed", r.ConfirmedCount),
	}
	if r.OperationID != "" {
		fields = append(fields,
			zap.String("operation_id", r.OperationID),
			zap.Duration("duration", r.Duration),
		)
	}

	if r.Err != nil {
		fields = append(fields, zap.String("code", domain.ErrorCode(r.Err)), zap.Error(r.Err))
		l.log.Warn("geofence operation failed", fields...)
		return
	}
	l.log.Info("geofence operation succeeded", fields...)
}

// ReportSink persists or forwards a report somewhere outside the process.
type ReportSink func(ctx context.Context, r *domain.Report) error

// SinkReporter adapts a ReportSink into a Reporter. Sink errors are logged
// and dropped.
type SinkReporter struct {
	name string
	sink ReportSink
	log  *zap.Logger
}

func NewSinkReporter(name string, sink ReportSink, log *zap.Logger) *SinkReporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &SinkReporter{name: name, sink: sink, log: log}
}

func (s *SinkReporter) Report(ctx context.Context, r *domain.Report) {
	if err := s.sink(ctx, r); err != nil {
		s.log.Error("report sink failed",
			zap.String("sink", s.name),
			zap.String("operation_id", r.OperationID),
			zap.Error(err),
		)
	}
}
