// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Wire names of the submission fields.
const (
	FieldRiskPercentage = "riskPercentage"
	FieldGender         = "gender"
	FieldAge            = "age"
)

// Gender is the free-form gender answer. Any JSON scalar is accepted when
// decoding; null decodes to the empty string.
type Gender string

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (g *Gender) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		*g = ""
		return nil
	}
	s, err := scalarText(b)
	if err != nil {
		return fmt.Errorf("gender: %w", err)
	}
	*g = Gender(s)
	return nil
}

// Record is one stored answer inside a risk-percentage group.
type Record struct {
	Gender Gender  `json:"gender"`
	Age    float64 `json:"age"`
}

// UnmarshalJSON accepts legacy records whose age is a numeric string or
// null. Null decodes to 0, which falls outside every bracket.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw struct {
		Gender Gender          `json:"gender"`
		Age    json.RawMessage `json:"age"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Gender = raw.Gender
	r.Age = 0
	if len(raw.Age) == 0 || isNull(raw.Age) {
		return nil
	}
	age, err := parseAge(raw.Age)
	if err != nil {
		return fmt.Errorf("age: %w", err)
	}
	r.Age = age
	return nil
}

// Submission is a validated survey answer as received by ingestion.
type Submission struct {
	RiskPercentage string  `json:"riskPercentage"`
	Gender         Gender  `json:"gender"`
	Age            float64 `json:"age"`
}

// Record returns the part of the submission stored under its group.
func (s Submission) Record() Record {
	return Record{Gender: s.Gender, Age: s.Age}
}

// ParseSubmission decodes a JSON request body. Every field must be present
// and non-null; riskPercentage and gender may be any JSON scalar and are
// kept as text, age must be a number or a numeric string. Failures wrap
// ErrValidation.
func ParseSubmission(data []byte) (Submission, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Submission{}, fmt.Errorf("%w: decode body: %w", ErrValidation, err)
	}
	if fields == nil {
		return Submission{}, fmt.Errorf("%w: body must be an object", ErrValidation)
	}

	raw := make(map[string]json.RawMessage, 3)
	for _, name := range []string{FieldRiskPercentage, FieldGender, FieldAge} {
		v, ok := fields[name]
		if !ok || isNull(v) {
			return Submission{}, fmt.Errorf("%w: %s", ErrValidation, name)
		}
		raw[name] = v
	}

	risk, err := scalarText(raw[FieldRiskPercentage])
	if err != nil {
		return Submission{}, fmt.Errorf("%w: %s: %w", ErrValidation, FieldRiskPercentage, err)
	}
	gender, err := scalarText(raw[FieldGender])
	if err != nil {
		return Submission{}, fmt.Errorf("%w: %s: %w", ErrValidation, FieldGender, err)
	}
	age, err := parseAge(raw[FieldAge])
	if err != nil {
		return Submission{}, fmt.Errorf("%w: %s: %w", ErrValidation, FieldAge, err)
	}

	return Submission{RiskPercentage: risk, Gender: Gender(gender), Age: age}, nil
}

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

// scalarText renders a JSON scalar as text. Numbers are written in their
// shortest decimal form so 70, 70.0, 7e1 and "70" land in the same group.
func scalarText(b []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return "", fmt.Errorf("number out of range: %s", t)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("expected a scalar, got %T", v)
	}
}

func parseAge(b []byte) (float64, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}
