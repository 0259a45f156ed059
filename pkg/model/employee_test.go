package model

import (
	"testing"
)

func TestEmployee_IsSchedulable(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		available bool
		expected  bool
	}{
		{"在职可用", "active", true, true},
		{"在职不可用", "active", false, false},
		{"休假", "leave", true, false},
		{"离职", "inactive", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emp := &Employee{Status: tt.status, Available: tt.available}
			if got := emp.IsSchedulable(); got != tt.expected {
				t.Errorf("IsSchedulable() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestEmployee_HasCertification(t *testing.T) {
	emp := &Employee{Certifications: []string{"icu_care", "cpr"}}

	if !emp.HasCertification("cpr") {
		t.Error("should have cpr certification")
	}
	if emp.HasCertification("dialysis") {
		t.Error("should not have dialysis certification")
	}
}

func TestEmployee_PreferredShiftOn(t *testing.T) {
	emp := &Employee{
		PreferencePattern: []ShiftType{ShiftDay, ShiftDay, ShiftNight, ShiftOff},
	}

	tests := []struct {
		dayIndex int
		expected ShiftType
	}{
		{0, ShiftDay},
		{2, ShiftNight},
		{3, ShiftOff},
		{4, ShiftDay},   // 模式循环
		{6, ShiftNight}, // 第二轮
	}

	for _, tt := range tests {
		got, ok := emp.PreferredShiftOn(tt.dayIndex)
		if !ok {
			t.Fatalf("day %d: expected preference", tt.dayIndex)
		}
		if got != tt.expected {
			t.Errorf("day %d: preference = %s, expected %s", tt.dayIndex, got, tt.expected)
		}
	}
}

func TestEmployee_PreferredShiftOn_NoPattern(t *testing.T) {
	emp := &Employee{}
	if _, ok := emp.PreferredShiftOn(0); ok {
		t.Error("employee without pattern should have no preference")
	}
}

func TestEmployee_ClampedInputs(t *testing.T) {
	emp := &Employee{FatigueScore: 12, WorkloadRatio: -0.5}

	if emp.ClampedFatigue() != 10 {
		t.Errorf("ClampedFatigue() = %f, expected 10", emp.ClampedFatigue())
	}
	if emp.ClampedWorkload() != 0 {
		t.Errorf("ClampedWorkload() = %f, expected 0", emp.ClampedWorkload())
	}
}
