package model

import (
	"strconv"
	"time"

	"github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/model"
)

// XFEFluorescenceSpectrum is a row of the ISPyB XFEFluorescenceSpectrum table.
type XFEFluorescenceSpectrum struct {
	XFEFluorescenceSpectrumID uint32     `gorm:"column:xfeFluorescenceSpectrumId;primaryKey"`
	SessionID                 uint32     `gorm:"column:sessionId"`
	BLSampleID                *uint32    `gorm:"column:blSampleId"`
	JpegScanFileFullPath      *string    `gorm:"column:jpegScanFileFullPath"`
	StartTime                 *time.Time `gorm:"column:startTime"`
	EndTime                   *time.Time `gorm:"column:endTime"`
	Filename                  *string    `gorm:"column:filename"`
	ExposureTime              *float32   `gorm:"column:exposureTime"`
	AxisPosition              *float32   `gorm:"column:axisPosition"`
	BeamTransmission          *float32   `gorm:"column:beamTransmission"`
	ScanFileFullPath          *string    `gorm:"column:scanFileFullPath"`
	Energy                    *float32   `gorm:"column:energy"`
	BeamSizeVertical          *float32   `gorm:"column:beamSizeVertical"`
	BeamSizeHorizontal        *float32   `gorm:"column:beamSizeHorizontal"`
	CrystalClass              *string    `gorm:"column:crystalClass"`
	Comments                  *string    `gorm:"column:comments"`
	Flux                      *float64   `gorm:"column:flux"`
	FluxEnd                   *float64   `gorm:"column:flux_end"`
	WorkingDirectory          *string    `gorm:"column:workingDirectory"`
}

// TableName implements the gorm schema.Tabler interface.
func (XFEFluorescenceSpectrum) TableName() string {
	return "XFEFluorescenceSpectrum"
}

// FluorescenceScan maps the row onto a validated model.FluorescenceScan. A
// row violating the model's invariants results in a *model.ValidationError.
func (r XFEFluorescenceSpectrum) FluorescenceScan() (*model.FluorescenceScan, error) {
	return model.New(model.FluorescenceScan{
		ID:                   r.XFEFluorescenceSpectrumID,
		SessionID:            r.SessionID,
		SampleID:             r.BLSampleID,
		Status:               model.DeriveStatus(r.StartTime, r.EndTime, r.ScanFileFullPath),
		StartTime:            utc(r.StartTime),
		EndTime:              utc(r.EndTime),
		Filename:             r.Filename,
		ScanFileFullPath:     r.ScanFileFullPath,
		JpegScanFileFullPath: r.JpegScanFileFullPath,
		WorkingDirectory:     r.WorkingDirectory,
		Acquisition: model.Acquisition{
			Energy:             widen(r.Energy),
			ExposureTime:       widen(r.ExposureTime),
			AxisPosition:       widen(r.AxisPosition),
			BeamTransmission:   widen(r.BeamTransmission),
			BeamSizeVertical:   widen(r.BeamSizeVertical),
			BeamSizeHorizontal: widen(r.BeamSizeHorizontal),
			Flux:               r.Flux,
			FluxEnd:            r.FluxEnd,
		},
		CrystalClass: r.CrystalClass,
		Comments:     r.Comments,
	})
}

// widen converts a FLOAT column to float64 by way of its shortest decimal
// representation, so 0.1 is exposed as 0.1 rather than 0.10000000149011612.
func widen(f *float32) *float64 {
	if f == nil {
		return nil
	}
	wide, err := strconv.ParseFloat(strconv.FormatFloat(float64(*f), 'g', -1, 32), 64)
	if err != nil {
		wide = float64(*f)
	}
	return &wide
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
