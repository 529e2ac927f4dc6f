package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gmontoya2483/Shushme/module/core/domain"
)

func TestLogReporter_Success(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rep := NewLogReporter(zap.New(core))

	rep.Report(context.Background(), &domain.Report{
		OperationID: "op-1",
		Kind:        domain.OperationAdd,
		RegionIDs:   []string{"a", "b"},
		Status:      domain.StatusSucceeded,
		Duration:    120 * time.Millisecond,
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "op-1", entries[0].ContextMap()["operation_id"])
	assert.Equal(t, []interface{}{"a", "b"}, entries[0].ContextMap()["region_ids"])
}

func TestLogReporter_FailureCarriesCode(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rep := NewLogReporter(zap.New(core))

	rep.Report(context.Background(), &domain.Report{
		Kind:      domain.OperationRemove,
		RegionIDs: []string{"a"},
		Status:    domain.StatusFailed,
		Err:       domain.ErrPermissionDenied,
	})

	entries := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.CodePermissionDenied, entries[0].ContextMap()["code"])
	_, hasOp := entries[0].ContextMap()["operation_id"]
	assert.False(t, hasOp)
}

func TestMultiReporter_FansOutInOrder(t *testing.T) {
	var order []string
	first := NewSinkReporter("first", func(context.Context, *domain.Report) error {
		order = append(order, "first")
		return nil
	}, nil)
	second := NewSinkReporter("second", func(context.Context, *domain.Report) error {
		order = append(order, "second")
		return nil
	}, nil)

	MultiReporter{first, nil, second}.Report(context.Background(), &domain.Report{})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSinkReporter_LogsSinkError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rep := NewSinkReporter("ledger", func(context.Context, *domain.Report) error {
		return errors.New("db down")
	}, zap.New(core))

	rep.Report(context.Background(), &domain.Report{OperationID: "op-1"})

	entries := logs.FilterMessage("report sink failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ledger", entries[0].ContextMap()["sink"])
}
