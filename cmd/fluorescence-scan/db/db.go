package db

import (
	"context"
	"fmt"

	dbmodel "github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/db/model"
	igorm "github.com/ispyb/fluorescence-scan/internal/gorm"
	"github.com/ispyb/fluorescence-scan/internal/migrate"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Open opens a connection pool with the ISPyB database.
func Open(databaseURL string, options ...igorm.Option) (*gorm.DB, error) {
	return igorm.Open(databaseURL, options...)
}

// Migrate migrates the gorm.DB utilizing the migrations directory specified.
// It is used to provision fixture databases shaped like ISPyB.
func Migrate(db *gorm.DB, migrations string) error {
	dbconn, err := db.DB()
	if err != nil {
		return err
	}
	return migrate.Migrate(
		dbconn,
		db.Dialector.Name(),
		migrations,
		migrate.WithMigrationsTable("fluorescence_scan_migrations"),
	)
}

var orderByID = clause.OrderByColumn{
	Column: clause.Column{Name: "xfeFluorescenceSpectrumId"},
}

// FirstFluorescenceScan encompasses all logic to retrieve a single
// fluorescence spectrum row.
type FirstFluorescenceScan struct {
	ID     uint32
	Result dbmodel.XFEFluorescenceSpectrum
}

// First implements the igorm.Firster interface.
func (f *FirstFluorescenceScan) First(ctx context.Context, db *gorm.DB) error {
	err := db.
		WithContext(ctx).
		First(&f.Result, f.ID).Error
	if err != nil {
		return fmt.Errorf("while retrieving fluorescence spectrum: %w", err)
	}
	return nil
}

// FindFluorescenceScansByIDs encompasses all logic to retrieve the
// fluorescence spectrum rows with the specified IDs.
type FindFluorescenceScansByIDs struct {
	IDs    []uint32
	Result []dbmodel.XFEFluorescenceSpectrum
}

// Find implements the igorm.Finder interface.
func (f *FindFluorescenceScansByIDs) Find(ctx context.Context, db *gorm.DB) error {
	err := db.
		WithContext(ctx).
		Where(map[string]interface{}{"xfeFluorescenceSpectrumId": f.IDs}).
		Order(orderByID).
		Find(&f.Result).Error
	if err != nil {
		return fmt.Errorf("while retrieving fluorescence spectra by ID: %w", err)
	}
	return nil
}

// FindFluorescenceScansBySession encompasses all logic to retrieve the
// fluorescence spectrum rows recorded during a session.
type FindFluorescenceScansBySession struct {
	SessionID uint32
	Result    []dbmodel.XFEFluorescenceSpectrum
}

// Find implements the igorm.Finder interface.
func (f *FindFluorescenceScansBySession) Find(ctx context.Context, db *gorm.DB) error {
	err := db.
		WithContext(ctx).
		Where(map[string]interface{}{"sessionId": f.SessionID}).
		Order(orderByID).
		Find(&f.Result).Error
	if err != nil {
		return fmt.Errorf("while retrieving fluorescence spectra by session: %w", err)
	}
	return nil
}
