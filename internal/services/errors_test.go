package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/seriesdash/seriesdash/internal/analytics"
)

func TestServiceError_Error(t *testing.T) {
	err := &ServiceError{Code: "TEST_ERROR", Message: "Test error message"}
	if err.Error() != "Test error message" {
		t.Errorf("Expected 'Test error message', got '%s'", err.Error())
	}
}

func TestNewServiceErrorWithDetails(t *testing.T) {
	details := map[string]interface{}{"field": "horizon"}
	err := NewServiceErrorWithDetails(CodeInvalidRequest, "bad request", details)

	if err.Code != CodeInvalidRequest {
		t.Errorf("Expected code %s, got %s", CodeInvalidRequest, err.Code)
	}
	if err.Details["field"] != "horizon" {
		t.Errorf("Expected field detail, got %v", err.Details)
	}
	if NewServiceError("X", "y").Details != nil {
		t.Error("Expected nil details")
	}
}

func TestServiceError_JSONOmitsEmptyDetails(t *testing.T) {
	data, err := json.Marshal(NewServiceError(CodeNoData, "empty"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "details") {
		t.Errorf("Expected details to be omitted: %s", data)
	}
}

func TestServiceError_Unwrap(t *testing.T) {
	serr := invalidRange("horizon %d out of range", 0)
	if serr.Code != CodeInvalidRange {
		t.Errorf("Expected %s, got %s", CodeInvalidRange, serr.Code)
	}
	if !errors.Is(serr, ErrInvalidRange) {
		t.Error("Expected errors.Is to find ErrInvalidRange")
	}

	var target *ServiceError
	wrapped := fmt.Errorf("handler: %w", serr)
	if !errors.As(wrapped, &target) || target.Code != CodeInvalidRange {
		t.Errorf("Expected errors.As to recover the ServiceError")
	}
	if NewServiceError("X", "y").Unwrap() != nil {
		t.Error("Plain ServiceError should unwrap to nil")
	}
}

func TestWarningCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", analytics.ErrInsufficientData), CodeInsufficientData},
		{fmt.Errorf("x: %w", analytics.ErrDegenerateSeries), CodeDegenerateSeries},
		{fmt.Errorf("x: %w", analytics.ErrInvalidParameter), CodeInvalidParameter},
		{fmt.Errorf("x: %w", analytics.ErrModelFit), CodeModelFit},
		{errors.New("anything else"), CodeModelFit},
	}
	for _, tt := range tests {
		if got := WarningCode(tt.err); got != tt.want {
			t.Errorf("WarningCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestRunState_Transitions(t *testing.T) {
	valid := [][2]RunState{
		{StateIdle, StateConfiguring},
		{StateConfiguring, StateProcessing},
		{StateConfiguring, StateFailed},
		{StateProcessing, StateCompleted},
		{StateProcessing, StateFailed},
	}
	for _, tr := range valid {
		if !tr[0].CanTransition(tr[1]) {
			t.Errorf("Expected %s -> %s to be allowed", tr[0], tr[1])
		}
	}

	invalid := [][2]RunState{
		{StateIdle, StateProcessing},
		{StateIdle, StateCompleted},
		{StateCompleted, StateProcessing},
		{StateFailed, StateConfiguring},
	}
	for _, tr := range invalid {
		if tr[0].CanTransition(tr[1]) {
			t.Errorf("Expected %s -> %s to be rejected", tr[0], tr[1])
		}
	}

	if !StateCompleted.Terminal() || !StateFailed.Terminal() || StateProcessing.Terminal() {
		t.Error("Terminal states misreported")
	}
}
