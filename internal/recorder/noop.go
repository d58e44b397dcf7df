package recorder

import "InsiderSentinel/internal/model"

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *model.RunSummary) error                           { return nil }
func (n *NoopRecorder) RecordTrades(_ string, _ []model.ClosedTrade) error            { return nil }
func (n *NoopRecorder) RecordTrends(_, _ string, _ []model.CompletedTrendEvent) error { return nil }
func (n *NoopRecorder) Close() error                                                  { return nil }
