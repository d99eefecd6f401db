package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ivalidator "github.com/ispyb/fluorescence-scan/internal/validator"

	"github.com/go-playground/validator/v10"
)

// FluorescenceScan is a single X-ray fluorescence spectrum acquisition.
type FluorescenceScan struct {
	// ID is the relational primary key. It is immutable once assigned.
	ID        uint32  `validate:"identifier"`
	SessionID uint32  `validate:"identifier"`
	SampleID  *uint32 `validate:"omitempty,identifier"`
	Status    Status  `validate:"scanstatus"`

	StartTime *time.Time
	EndTime   *time.Time

	Filename             *string
	ScanFileFullPath     *string `validate:"omitempty,abspath"`
	JpegScanFileFullPath *string `validate:"omitempty,abspath"`
	WorkingDirectory     *string `validate:"omitempty,abspath"`

	Acquisition Acquisition

	CrystalClass *string
	Comments     *string
}

// Acquisition holds the beam and detector parameters a scan was recorded with.
type Acquisition struct {
	// Energy of the beam in eV.
	Energy *float64 `validate:"omitempty,gte=0"`
	// ExposureTime in seconds.
	ExposureTime *float64 `validate:"omitempty,gte=0"`
	AxisPosition *float64
	// BeamTransmission as a percentage.
	BeamTransmission   *float64 `validate:"omitempty,gte=0,lte=100"`
	BeamSizeVertical   *float64 `validate:"omitempty,gte=0"`
	BeamSizeHorizontal *float64 `validate:"omitempty,gte=0"`
	// Flux in photons per second at the start and end of the scan.
	Flux    *float64 `validate:"omitempty,gte=0"`
	FluxEnd *float64 `validate:"omitempty,gte=0"`
}

// Session is a reference to the experiment session a scan was recorded in.
// Sessions are owned by a sibling subgraph; only the key is held here.
type Session struct {
	ID uint32
}

// New validates the scan, returning it if every invariant holds and a
// *ValidationError otherwise.
func New(scan FluorescenceScan) (*FluorescenceScan, error) {
	if err := scan.Validate(); err != nil {
		return nil, err
	}
	return &scan, nil
}

// Validate checks the scan's invariants.
func (s FluorescenceScan) Validate() error {
	if err := valid.Struct(s); err != nil {
		return newValidationError(s.ID, err)
	}
	return nil
}

// Session retrieves the Session the scan belongs to.
func (s FluorescenceScan) Session() Session {
	return Session{ID: s.SessionID}
}

// ValidationError indicates a FluorescenceScan violates one or more
// invariants.
type ValidationError struct {
	ID      uint32
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf(
		"invalid fluorescence scan %d: %s",
		e.ID,
		strings.Join(e.Reasons, "; "),
	)
}

func newValidationError(id uint32, err error) *ValidationError {
	var valerrors validator.ValidationErrors
	if !errors.As(err, &valerrors) {
		return &ValidationError{ID: id, Reasons: []string{err.Error()}}
	}

	reasons := make([]string, len(valerrors))
	for i, err := range valerrors {
		reasons[i] = fmt.Sprintf("%q failed %q validator", err.Namespace(), err.Tag())
	}
	return &ValidationError{ID: id, Reasons: reasons}
}

var valid = newValidator()

func newValidator() *validator.Validate {
	valid := ivalidator.New()
	if err := valid.RegisterValidation("scanstatus", scanStatus); err != nil {
		panic(fmt.Sprintf("validator initialization; error: %s", err))
	}
	valid.RegisterStructValidation(timeOrder, FluorescenceScan{})
	return valid
}

func scanStatus(fl validator.FieldLevel) bool {
	status, ok := fl.Field().Interface().(Status)
	if !ok {
		return false
	}
	return status.Valid()
}

// timeOrder requires a scan to end no earlier than it started.
func timeOrder(sl validator.StructLevel) {
	scan, ok := sl.Current().Interface().(FluorescenceScan)
	if !ok {
		return
	}
	if scan.StartTime == nil || scan.EndTime == nil {
		return
	}
	if scan.EndTime.Before(*scan.StartTime) {
		sl.ReportError(scan.EndTime, "EndTime", "EndTime", "timeorder", "")
	}
}
