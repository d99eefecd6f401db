package graph

import (
	"context"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/logger"
	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/model"

	"github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

// ScanResolver resolves the fields of a FluorescenceScan.
type ScanResolver struct {
	resolver *Resolver
	scan     model.FluorescenceScan
}

func (r *ScanResolver) ID() graphql.ID {
	return graphql.ID(formatIdentifier(r.scan.ID))
}

func (r *ScanResolver) SessionID() int32 {
	return int32(r.scan.SessionID)
}

func (r *ScanResolver) SampleID() *int32 {
	if r.scan.SampleID == nil {
		return nil
	}
	id := int32(*r.scan.SampleID)
	return &id
}

func (r *ScanResolver) Status() string {
	return string(r.scan.Status)
}

func (r *ScanResolver) StartTime() *DateTime {
	return newDateTime(r.scan.StartTime)
}

func (r *ScanResolver) EndTime() *DateTime {
	return newDateTime(r.scan.EndTime)
}

func (r *ScanResolver) Filename() *string {
	return r.scan.Filename
}

func (r *ScanResolver) ScanFileFullPath() *string {
	return r.scan.ScanFileFullPath
}

func (r *ScanResolver) JpegScanFileFullPath() *string {
	return r.scan.JpegScanFileFullPath
}

// JpegScanURL resolves a temporary URL to the scan's jpeg. It is null when
// there is no jpeg or no object storage is configured.
func (r *ScanResolver) JpegScanURL(ctx context.Context) *string {
	if r.resolver.presigner == nil || r.scan.JpegScanFileFullPath == nil {
		return nil
	}

	url, err := r.resolver.presigner.URL(ctx, *r.scan.JpegScanFileFullPath)
	if err != nil {
		r.resolver.logger.
			With(logger.ContextFields(ctx)...).
			Warn("while presigning jpeg scan URL", zap.Uint32("id", r.scan.ID), zap.Error(err))
		return nil
	}
	return &url
}

func (r *ScanResolver) Energy() *float64 {
	return r.scan.Acquisition.Energy
}

func (r *ScanResolver) ExposureTime() *float64 {
	return r.scan.Acquisition.ExposureTime
}

func (r *ScanResolver) AxisPosition() *float64 {
	return r.scan.Acquisition.AxisPosition
}

func (r *ScanResolver) BeamTransmission() *float64 {
	return r.scan.Acquisition.BeamTransmission
}

func (r *ScanResolver) BeamSizeVertical() *float64 {
	return r.scan.Acquisition.BeamSizeVertical
}

func (r *ScanResolver) BeamSizeHorizontal() *float64 {
	return r.scan.Acquisition.BeamSizeHorizontal
}

func (r *ScanResolver) Flux() *float64 {
	return r.scan.Acquisition.Flux
}

func (r *ScanResolver) FluxEnd() *float64 {
	return r.scan.Acquisition.FluxEnd
}

func (r *ScanResolver) CrystalClass() *string {
	return r.scan.CrystalClass
}

func (r *ScanResolver) Comments() *string {
	return r.scan.Comments
}

func (r *ScanResolver) WorkingDirectory() *string {
	return r.scan.WorkingDirectory
}

// Session resolves the scan's session reference. It requires no store call.
func (r *ScanResolver) Session() *SessionResolver {
	return r.resolver.session(r.scan.Session())
}

// SessionResolver resolves the fields this subgraph contributes to Session.
type SessionResolver struct {
	resolver *Resolver
	session  model.Session
}

func (r *SessionResolver) ID() int32 {
	return int32(r.session.ID)
}

// FluorescenceScan resolves the scans recorded during the session, ordered
// by ID.
func (r *SessionResolver) FluorescenceScan(ctx context.Context) ([]*ScanResolver, error) {
	scans, err := r.resolver.store.FluorescenceScansBySession(ctx, r.session.ID)
	if err != nil {
		r.resolver.logger.
			With(logger.ContextFields(ctx)...).
			Error("while resolving session fluorescence scans", zap.Uint32("session_id", r.session.ID), zap.Error(err))
		return nil, errDataUnavailable
	}

	resolvers := make([]*ScanResolver, 0, len(scans))
	for _, scan := range scans {
		resolvers = append(resolvers, r.resolver.scan(scan))
	}
	return resolvers, nil
}
