package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid mps", MPS, true},
		{"valid mph", MPH, true},
		{"valid kmph", KMPH, true},
		{"valid kph", KPH, true},
		{"invalid unit", "invalid", false},
		{"empty unit", "", false},
		{"uppercase MPS", "MPS", false}, // Case-sensitive
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
			if err := Validate(tt.unit); (err == nil) != tt.expected {
				t.Errorf("Validate(%s) = %v", tt.unit, err)
			}
		})
	}
}

func TestValidUnitsString(t *testing.T) {
	if got := ValidUnitsString(); got != "mps, mph, kmph, kph" {
		t.Errorf("ValidUnitsString() = %s", got)
	}
}

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		unit string
		want float64
	}{
		{MPS, 10},
		{MPH, 22.369362920544},
		{KMPH, 36},
		{KPH, 36},
		{"furlongs", 10},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			if got := ConvertSpeed(10, tt.unit); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ConvertSpeed(10, %s) = %v, want %v", tt.unit, got, tt.want)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	for unit, want := range map[string]string{MPS: "m/s", MPH: "mph", KMPH: "km/h", KPH: "km/h", "": "m/s"} {
		if got := Label(unit); got != want {
			t.Errorf("Label(%q) = %q, want %q", unit, got, want)
		}
	}
}
