package db

import (
	"context"
	"errors"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/model"
)

// NewStoreMock creates a new StoreMock instance.
func NewStoreMock(options ...StoreMockOption) *StoreMock {
	mock := &StoreMock{}

	for _, option := range options {
		option(mock)
	}

	return mock
}

// StoreMockOption is a function type that may configure a StoreMock instance.
type StoreMockOption func(*StoreMock)

// WithFluorescenceScan configures a StoreMock instance to execute the passed
// function when FluorescenceScan is called.
func WithFluorescenceScan(fn fluorescenceScanFunc) StoreMockOption {
	return func(mock *StoreMock) { mock.fluorescenceScan = fn }
}

// WithFluorescenceScansByIDs configures a StoreMock instance to execute the
// passed function when FluorescenceScansByIDs is called.
func WithFluorescenceScansByIDs(fn fluorescenceScansByIDsFunc) StoreMockOption {
	return func(mock *StoreMock) { mock.fluorescenceScansByIDs = fn }
}

// WithFluorescenceScansBySession configures a StoreMock instance to execute
// the passed function when FluorescenceScansBySession is called.
func WithFluorescenceScansBySession(fn fluorescenceScansBySessionFunc) StoreMockOption {
	return func(mock *StoreMock) { mock.fluorescenceScansBySession = fn }
}

// WithScans configures a StoreMock instance to serve every lookup from the
// passed scans.
func WithScans(scans ...model.FluorescenceScan) StoreMockOption {
	byID := make(map[uint32]model.FluorescenceScan, len(scans))
	for _, scan := range scans {
		byID[scan.ID] = scan
	}

	return func(mock *StoreMock) {
		mock.fluorescenceScan = func(_ context.Context, id uint32) (*model.FluorescenceScan, error) {
			scan, ok := byID[id]
			if !ok {
				return nil, nil
			}
			return &scan, nil
		}
		mock.fluorescenceScansByIDs = func(_ context.Context, ids []uint32) (map[uint32]model.FluorescenceScan, error) {
			found := make(map[uint32]model.FluorescenceScan)
			for _, id := range ids {
				if scan, ok := byID[id]; ok {
					found[id] = scan
				}
			}
			return found, nil
		}
		mock.fluorescenceScansBySession = func(_ context.Context, sessionID uint32) ([]model.FluorescenceScan, error) {
			found := make([]model.FluorescenceScan, 0)
			for _, scan := range scans {
				if scan.SessionID == sessionID {
					found = append(found, scan)
				}
			}
			return found, nil
		}
	}
}

type (
	fluorescenceScanFunc           func(context.Context, uint32) (*model.FluorescenceScan, error)
	fluorescenceScansByIDsFunc     func(context.Context, []uint32) (map[uint32]model.FluorescenceScan, error)
	fluorescenceScansBySessionFunc func(context.Context, uint32) ([]model.FluorescenceScan, error)
)

// StoreMock mocks Store for use in tests of its consumers.
type StoreMock struct {
	fluorescenceScan           fluorescenceScanFunc
	fluorescenceScansByIDs     fluorescenceScansByIDsFunc
	fluorescenceScansBySession fluorescenceScansBySessionFunc
}

var errMockNotConfigured = errors.New("mock not configured")

// FluorescenceScan calls the function configured with WithFluorescenceScan.
func (m StoreMock) FluorescenceScan(ctx context.Context, id uint32) (*model.FluorescenceScan, error) {
	if m.fluorescenceScan == nil {
		return nil, errMockNotConfigured
	}
	return m.fluorescenceScan(ctx, id)
}

// FluorescenceScansByIDs calls the function configured with
// WithFluorescenceScansByIDs.
func (m StoreMock) FluorescenceScansByIDs(ctx context.Context, ids []uint32) (map[uint32]model.FluorescenceScan, error) {
	if m.fluorescenceScansByIDs == nil {
		return nil, errMockNotConfigured
	}
	return m.fluorescenceScansByIDs(ctx, ids)
}

// FluorescenceScansBySession calls the function configured with
// WithFluorescenceScansBySession.
func (m StoreMock) FluorescenceScansBySession(ctx context.Context, sessionID uint32) ([]model.FluorescenceScan, error) {
	if m.fluorescenceScansBySession == nil {
		return nil, errMockNotConfigured
	}
	return m.fluorescenceScansBySession(ctx, sessionID)
}
