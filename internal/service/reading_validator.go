package service

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bptracker/internal/errors"
	"bptracker/internal/model"
)

var dateRegex = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)

// ReadingInput carries reading fields as decoded from a JSON body, before
// their types are known. A nil field means the client did not send it.
type ReadingInput struct {
	Systolic  any `json:"systolic"`
	Diastolic any `json:"diastolic"`
	Date      any `json:"date"`
}

// explicitNull stands in for a field sent as JSON null, which is present
// but malformed.
type explicitNull struct{}

// UnmarshalJSON keeps absent keys nil and turns null values into explicitNull.
func (in *ReadingInput) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	decode := func(key string) (any, error) {
		raw, ok := fields[key]
		if !ok {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v == nil {
			return explicitNull{}, nil
		}
		return v, nil
	}

	var decoded ReadingInput
	var err error
	if decoded.Systolic, err = decode("systolic"); err != nil {
		return err
	}
	if decoded.Diastolic, err = decode("diastolic"); err != nil {
		return err
	}
	if decoded.Date, err = decode("date"); err != nil {
		return err
	}
	*in = decoded
	return nil
}

// ReadingValidator coerces loosely typed reading input.
type ReadingValidator struct{}

// NewReadingValidator creates a new reading validator.
func NewReadingValidator() *ReadingValidator {
	return &ReadingValidator{}
}

// Missing reports whether any required field is absent.
func (in ReadingInput) Missing() bool {
	return in.Systolic == nil || in.Diastolic == nil || in.Date == nil
}

// ValidateReading builds an unsaved reading for owner from input.
// Absent fields yield errors.ErrValidation; present but malformed fields
// yield errors.ErrInvalidInput.
func (v *ReadingValidator) ValidateReading(ownerID uint, in ReadingInput) (*model.Reading, error) {
	if in.Missing() {
		return nil, errors.ErrValidation
	}

	systolic, err := v.parsePressure(in.Systolic)
	if err != nil {
		return nil, fmt.Errorf("systolic: %w", err)
	}
	diastolic, err := v.parsePressure(in.Diastolic)
	if err != nil {
		return nil, fmt.Errorf("diastolic: %w", err)
	}
	date, err := v.parseDate(in.Date)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}

	return &model.Reading{
		Systolic:  systolic,
		Diastolic: diastolic,
		Date:      date,
		UserID:    ownerID,
	}, nil
}

// parsePressure accepts JSON numbers without a fractional part and decimal
// strings.
func (v *ReadingValidator) parsePressure(raw any) (int, error) {
	switch val := raw.(type) {
	case float64:
		if val != math.Trunc(val) || val > math.MaxInt32 || val < math.MinInt32 {
			return 0, errors.ErrInvalidInput
		}
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, errors.ErrInvalidInput
		}
		return n, nil
	default:
		return 0, errors.ErrInvalidInput
	}
}

// parseDate accepts YYYY-M-D with optional zero padding; the result is
// midnight UTC.
func (v *ReadingValidator) parseDate(raw any) (time.Time, error) {
	s, ok := raw.(string)
	if !ok || !dateRegex.MatchString(s) {
		return time.Time{}, errors.ErrInvalidInput
	}
	date, err := time.ParseInLocation(model.DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, errors.ErrInvalidInput
	}
	return model.TruncateToDay(date), nil
}
