package graph

import (
	"context"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/logger"
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/model"

	"go.uber.org/zap"
)

// referenceResolver resolves representations of a single entity type. The
// returned slice is parallel to reps; absent entities are nil.
type referenceResolver func(ctx context.Context, r *Resolver, reps []Representation) ([]*EntityResolver, error)

// referenceResolvers holds the reference resolver of every entity, keyed by
// type name.
var referenceResolvers = map[string]referenceResolver{
	typeFluorescenceScan: resolveScanReferences,
	typeSession:          resolveSessionReferences,
}

// Entities resolves Query._entities. Representations are grouped by
// __typename and each group is resolved in a single batch.
func (r *Resolver) Entities(
	ctx context.Context,
	args struct{ Representations []Representation },
) ([]*EntityResolver, error) {
	logger := r.logger.With(logger.ContextFields(ctx)...)

	groups := make(map[string][]int)
	order := make([]string, 0)
	for i, rep := range args.Representations {
		typename, ok := rep.Typename()
		if !ok {
			return nil, errNoTypename
		}
		if _, ok := referenceResolvers[typename]; !ok {
			return nil, badUserInput("%q is not an entity of this subgraph", typename)
		}
		if _, ok := groups[typename]; !ok {
			order = append(order, typename)
		}
		groups[typename] = append(groups[typename], i)
	}

	entities := make([]*EntityResolver, len(args.Representations))
	for _, typename := range order {
		indexes := groups[typename]
		reps := make([]Representation, 0, len(indexes))
		for _, i := range indexes {
			reps = append(reps, args.Representations[i])
		}

		resolved, err := referenceResolvers[typename](ctx, r, reps)
		if err != nil {
			logger.Debug("while resolving entities", zap.String("typename", typename), zap.Error(err))
			return nil, err
		}
		for j, i := range indexes {
			entities[i] = resolved[j]
		}
	}
	return entities, nil
}

func resolveScanReferences(ctx context.Context, r *Resolver, reps []Representation) ([]*EntityResolver, error) {
	ids := make([]uint32, 0, len(reps))
	seen := make(map[uint32]struct{}, len(reps))
	keys := make([]uint32, len(reps))
	for i, rep := range reps {
		id, err := rep.Identifier("id")
		if err != nil {
			return nil, badUserInput("invalid %s representation: %s", typeFluorescenceScan, err)
		}
		keys[i] = id
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	scans, err := r.store.FluorescenceScansByIDs(ctx, ids)
	if err != nil {
		r.logger.
			With(logger.ContextFields(ctx)...).
			Error("while resolving fluorescence scan references", zap.Int("ids", len(ids)), zap.Error(err))
		return nil, errDataUnavailable
	}

	entities := make([]*EntityResolver, len(reps))
	for i, id := range keys {
		scan, ok := scans[id]
		if !ok {
			continue
		}
		entities[i] = &EntityResolver{scan: r.scan(scan)}
	}
	return entities, nil
}

func resolveSessionReferences(_ context.Context, r *Resolver, reps []Representation) ([]*EntityResolver, error) {
	entities := make([]*EntityResolver, len(reps))
	for i, rep := range reps {
		id, err := rep.Identifier("id")
		if err != nil {
			return nil, badUserInput("invalid %s representation: %s", typeSession, err)
		}
		entities[i] = &EntityResolver{session: r.session(model.Session{ID: id})}
	}
	return entities, nil
}

// EntityResolver resolves the _Entity union.
type EntityResolver struct {
	scan    *ScanResolver
	session *SessionResolver
}

func (r *EntityResolver) ToFluorescenceScan() (*ScanResolver, bool) {
	return r.scan, r.scan != nil
}

func (r *EntityResolver) ToSession() (*SessionResolver, bool) {
	return r.session, r.session != nil
}

// Service resolves Query._service.
func (r *Resolver) Service() *ServiceResolver {
	return &ServiceResolver{sdl: r.sdl}
}

// ServiceResolver resolves the _Service type.
type ServiceResolver struct {
	sdl string
}

func (r *ServiceResolver) SDL() string {
	return r.sdl
}
