package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbmodel "github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/db/model"
	scanerrors "github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/errors"
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/logger"
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/model"
	igorm "github.com/ispyb/fluorescence-scan/internal/gorm"
	"github.com/ispyb/fluorescence-scan/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tracerName = "github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/db"

// NewStore creates a new Store instance.
func NewStore(
	logger *zap.Logger,
	db *gorm.DB,
	metrics *metrics.Metrics,
) *Store {
	return &Store{
		logger:  logger,
		store:   igorm.NewStore(db),
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
	}
}

// Store is responsible for reading fluorescence scans from ISPyB. Rows are
// validated as they are read; invalid rows are logged and excluded. Failures
// to reach the database are reported as errors.ErrDataUnavailable.
type Store struct {
	logger  *zap.Logger
	store   *igorm.Store
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// FluorescenceScan retrieves the scan with the specified ID. A nil scan and
// nil error are returned when no such scan exists.
func (s Store) FluorescenceScan(ctx context.Context, id uint32) (scan *model.FluorescenceScan, err error) {
	const op = "first_fluorescence_scan"
	ctx, end := s.start(ctx, op, attribute.Int64("fluorescence_scan.id", int64(id)))
	defer func() { end(err) }()

	query := FirstFluorescenceScan{ID: id}
	found, err := s.store.First(ctx, &query)
	if err != nil {
		return nil, s.unavailable(ctx, op, err)
	}
	if !found {
		return nil, nil
	}

	scan, err = query.Result.FluorescenceScan()
	if err != nil {
		s.quarantine(ctx, err)
		return nil, nil
	}
	return scan, nil
}

// FluorescenceScansByIDs retrieves the scans with the specified IDs, keyed by
// ID. IDs without a scan are absent from the result.
func (s Store) FluorescenceScansByIDs(ctx context.Context, ids []uint32) (scans map[uint32]model.FluorescenceScan, err error) {
	const op = "find_fluorescence_scans_by_ids"
	ctx, end := s.start(ctx, op, attribute.Int("fluorescence_scan.ids", len(ids)))
	defer func() { end(err) }()

	if len(ids) == 0 {
		return map[uint32]model.FluorescenceScan{}, nil
	}

	query := FindFluorescenceScansByIDs{IDs: ids}
	if err := s.store.Find(ctx, &query); err != nil {
		return nil, s.unavailable(ctx, op, err)
	}

	scans = make(map[uint32]model.FluorescenceScan, len(query.Result))
	for _, scan := range s.validRows(ctx, query.Result) {
		scans[scan.ID] = scan
	}
	return scans, nil
}

// FluorescenceScansBySession retrieves the scans recorded during the session,
// ordered by ID.
func (s Store) FluorescenceScansBySession(ctx context.Context, sessionID uint32) (scans []model.FluorescenceScan, err error) {
	const op = "find_fluorescence_scans_by_session"
	ctx, end := s.start(ctx, op, attribute.Int64("session.id", int64(sessionID)))
	defer func() { end(err) }()

	query := FindFluorescenceScansBySession{SessionID: sessionID}
	if err := s.store.Find(ctx, &query); err != nil {
		return nil, s.unavailable(ctx, op, err)
	}
	return s.validRows(ctx, query.Result), nil
}

// Ping verifies the database is reachable.
func (s Store) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return s.unavailable(ctx, "ping", err)
	}
	return nil
}

func (s Store) validRows(ctx context.Context, rows []dbmodel.XFEFluorescenceSpectrum) []model.FluorescenceScan {
	scans := make([]model.FluorescenceScan, 0, len(rows))
	for _, row := range rows {
		scan, err := row.FluorescenceScan()
		if err != nil {
			s.quarantine(ctx, err)
			continue
		}
		scans = append(scans, *scan)
	}
	return scans
}

// start begins a traced and measured store operation. The returned function
// ends it.
func (s Store) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	begin := time.Now()
	ctx, span := s.tracer.Start(ctx, "db."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.ObserveQuery(op, begin, err)
	}
}

// unavailable logs the cause of a failed operation and returns an error that
// does not expose it.
func (s Store) unavailable(ctx context.Context, op string, err error) error {
	logger := s.logger.With(logger.ContextFields(ctx)...)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("store operation abandoned", zap.String("operation", op), zap.Error(err))
	} else {
		logger.Error("store operation failed", zap.String("operation", op), zap.Error(err))
	}
	return fmt.Errorf("while executing %s: %w", op, scanerrors.ErrDataUnavailable)
}

func (s Store) quarantine(ctx context.Context, err error) {
	s.metrics.StoreQuarantinedRows.Inc()
	s.logger.
		With(logger.ContextFields(ctx)...).
		Warn("quarantined invalid fluorescence spectrum row", zap.Error(err))
}
