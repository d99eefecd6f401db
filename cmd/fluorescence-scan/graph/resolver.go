package graph

import (
	"context"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/logger"
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/model"

	"github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

// IStore represents the API by which the resolver may read fluorescence
// scans. A nil scan and nil error indicate absence.
type IStore interface {
	FluorescenceScan(context.Context, uint32) (*model.FluorescenceScan, error)
	FluorescenceScansByIDs(context.Context, []uint32) (map[uint32]model.FluorescenceScan, error)
	FluorescenceScansBySession(context.Context, uint32) ([]model.FluorescenceScan, error)
}

// Presigner creates URLs granting temporary access to stored files.
type Presigner interface {
	URL(context.Context, string) (string, error)
}

// NewResolver creates a new Resolver instance. presigner may be nil, in
// which case no file URLs are resolved.
func NewResolver(
	logger *zap.Logger,
	store IStore,
	presigner Presigner,
) *Resolver {
	return &Resolver{
		logger:    logger,
		store:     store,
		presigner: presigner,
	}
}

// Resolver resolves graphql queries.
type Resolver struct {
	logger    *zap.Logger
	store     IStore
	presigner Presigner

	// sdl is the subgraph schema served by _service.
	sdl string
}

// FluorescenceScan resolves Query.fluorescenceScan.
func (r *Resolver) FluorescenceScan(
	ctx context.Context,
	args struct{ ID graphql.ID },
) (*ScanResolver, error) {
	logger := r.logger.With(logger.ContextFields(ctx)...)

	id, err := parseIdentifier(string(args.ID))
	if err != nil {
		logger.Debug("invalid fluorescence scan ID", zap.String("id", string(args.ID)), zap.Error(err))
		return nil, badUserInput("invalid fluorescence scan ID %q: %s", args.ID, err)
	}

	scan, err := r.store.FluorescenceScan(ctx, id)
	if err != nil {
		logger.Error("while resolving fluorescence scan", zap.Uint32("id", id), zap.Error(err))
		return nil, errDataUnavailable
	}
	if scan == nil {
		return nil, nil
	}
	return r.scan(*scan), nil
}

func (r *Resolver) scan(scan model.FluorescenceScan) *ScanResolver {
	return &ScanResolver{resolver: r, scan: scan}
}

func (r *Resolver) session(session model.Session) *SessionResolver {
	return &SessionResolver{resolver: r, session: session}
}
