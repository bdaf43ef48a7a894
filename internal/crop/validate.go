package crop

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Policy selects which declared ranges are enforced at submission.
type Policy int

const (
	// EnforceAll checks every field against DefaultRanges.
	EnforceAll Policy = iota
	// EnforceObserved checks only temperature and humidity.
	EnforceObserved
)

func (p Policy) String() string {
	if p == EnforceObserved {
		return "observed"
	}
	return "all"
}

// Enforced returns the fields whose range is checked, in check order.
func (p Policy) Enforced() []Field {
	if p == EnforceObserved {
		return []Field{Temperature, Humidity}
	}
	return FocusOrder
}

// EmptyFieldError reports the first empty field of an incomplete form.
type EmptyFieldError struct {
	Field Field
}

func (e *EmptyFieldError) Error() string {
	return fmt.Sprintf("field %s is empty", e.Field)
}

// InvalidNumberError reports a value that is not a finite number.
type InvalidNumberError struct {
	Field Field
	Value string
}

func (e *InvalidNumberError) Error() string {
	return fmt.Sprintf("%s must be a number", fieldTitle(e.Field))
}

// RangeError reports a value outside its declared range.
// Error returns the user-facing alert text.
type RangeError struct {
	Field Field
	Range Range
	Value float64
}

func (e *RangeError) Error() string {
	unit := ""
	switch e.Field {
	case Temperature:
		unit = " Celsius"
	case Rainfall:
		unit = " mm"
	}
	return fmt.Sprintf("%s must be between %s%s!", fieldTitle(e.Field), e.Range, unit)
}

// Validate checks the form for completeness, numeric values and ranges, in
// that order, and returns the feature vector. The first failure wins.
func Validate(form FormState, policy Policy) (Vector, error) {
	if field, ok := form.FirstEmpty(); ok {
		return Vector{}, &EmptyFieldError{Field: field}
	}

	values := make(map[Field]float64, len(FocusOrder))
	for _, field := range FocusOrder {
		v, err := parseNumber(form[field])
		if err != nil {
			return Vector{}, &InvalidNumberError{Field: field, Value: form[field]}
		}
		values[field] = v
	}

	for _, field := range policy.Enforced() {
		r := DefaultRanges[field]
		if !r.Contains(values[field]) {
			return Vector{}, &RangeError{Field: field, Range: r, Value: values[field]}
		}
	}

	var vec Vector
	for i, field := range VectorOrder {
		vec[i] = values[field]
	}
	return vec, nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite: %q", s)
	}
	return v, nil
}

func fieldTitle(f Field) string {
	if f == PH {
		return "PH"
	}
	s := string(f)
	return strings.ToUpper(s[:1]) + s[1:]
}
