package validator

import (
	"fmt"
	"math"
	"path"

	"github.com/go-playground/validator/v10"
)

// New creates a new validator instance.
func New() *validator.Validate {
	valid := validator.New()
	if err := RegisterIdentifierValidation(valid); err != nil {
		panic(fmt.Sprintf("validator initialization; error: %s", err))
	}
	if err := RegisterAbsPathValidation(valid); err != nil {
		panic(fmt.Sprintf("validator initialization; error: %s", err))
	}

	return valid
}

// RegisterIdentifierValidation registers the "identifier" field validator with
// the validator instance.
func RegisterIdentifierValidation(validator *validator.Validate) error {
	return validator.RegisterValidation("identifier", identifier)
}

// identifier matches against unsigned integers that may be used as a
// relational key and exposed as a GraphQL Int:
// - greater than zero
// - no greater than math.MaxInt32
func identifier(fl validator.FieldLevel) bool {
	var val uint64
	switch v := fl.Field().Interface().(type) {
	case uint32:
		val = uint64(v)
	case uint64:
		val = v
	case uint:
		val = uint64(v)
	default:
		return false
	}
	return val > 0 && val <= math.MaxInt32
}

// RegisterAbsPathValidation registers the "abspath" field validator with the
// validator instance.
func RegisterAbsPathValidation(validator *validator.Validate) error {
	return validator.RegisterValidation("abspath", abspath)
}

// abspath matches against slash separated absolute paths, as written by
// beamline acquisition software. Examples are:
// - /dls/i03/data/2024/cm37235-1/fluorescence/scan_1.dat
// - /data/visit/xfe.png
func abspath(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return path.IsAbs(val)
}
