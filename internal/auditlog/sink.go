package auditlog

import (
	"context"
	"errors"

	"github.com/uptrace/bun"

	"ms-admission/internal/models"
)

// Sink receives audit records. Callers treat every implementation as
// best-effort: an append failure is reported operationally and never
// propagated into a scan decision.
type Sink interface {
	Append(ctx context.Context, entry models.ScanLogEntry) error
	RecordAdminAction(ctx context.Context, action models.AdminAction) error
}

// DBSink persists audit records into the scan_logs and admin_actions tables.
type DBSink struct {
	Bun *bun.DB
}

func NewDBSink(bunDB *bun.DB) *DBSink {
	return &DBSink{Bun: bunDB}
}

func (s *DBSink) Append(ctx context.Context, entry models.ScanLogEntry) error {
	_, err := s.Bun.NewInsert().Model(&entry).Exec(ctx)
	return err
}

func (s *DBSink) RecordAdminAction(ctx context.Context, action models.AdminAction) error {
	_, err := s.Bun.NewInsert().Model(&action).Exec(ctx)
	return err
}

// MultiSink fans an audit record out to several sinks. All sinks are
// attempted regardless of individual failures; errors are joined for the
// caller to log.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Append(ctx context.Context, entry models.ScanLogEntry) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Append(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordAdminAction(ctx context.Context, action models.AdminAction) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordAdminAction(ctx, action); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
