package domain

import (
	"bytes"
	"encoding/json"
	"math"
)

// NullFloat is a float64 that may be absent, in the manner of sql.NullFloat64.
// It serializes to JSON null when not Valid.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a valid NullFloat, or an absent one when v is NaN or ±Inf.
func Float(v float64) NullFloat {
	if !finite(v) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

// Absent returns a NullFloat with no value.
func Absent() NullFloat {
	return NullFloat{}
}

// Present reports whether the value is set and is a finite number.
func (n NullFloat) Present() bool {
	return n.Valid && finite(n.Float64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// MarshalJSON implements json.Marshaler.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}
