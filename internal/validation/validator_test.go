// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/specula/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

func TestValidateStruct_MonitorCreateValid(t *testing.T) {
	tests := []struct {
		name  string
		input models.MonitorCreateRequest
	}{
		{
			name: "minimal",
			input: models.MonitorCreateRequest{
				Name: "example",
				URL:  "https://example.test",
			},
		},
		{
			name: "all fields",
			input: models.MonitorCreateRequest{
				Name:    "example",
				URL:     "https://example.test/health",
				Method:  "POST",
				Cookie:  "sid=abc",
				Headers: map[string]string{"X-Token": "1"},
			},
		},
		{
			name: "lowercase method accepted",
			input: models.MonitorCreateRequest{
				Name:   "example",
				URL:    "https://example.test",
				Method: "head",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(&tt.input); err != nil {
				t.Errorf("ValidateStruct() returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_MonitorCreateInvalid(t *testing.T) {
	tests := []struct {
		name      string
		input     models.MonitorCreateRequest
		wantField string
		wantTag   string
	}{
		{
			name:      "missing name",
			input:     models.MonitorCreateRequest{URL: "https://example.test"},
			wantField: "Name",
			wantTag:   "required",
		},
		{
			name:      "missing url",
			input:     models.MonitorCreateRequest{Name: "example"},
			wantField: "URL",
			wantTag:   "required",
		},
		{
			name: "name too long",
			input: models.MonitorCreateRequest{
				Name: strings.Repeat("x", 201),
				URL:  "https://example.test",
			},
			wantField: "Name",
			wantTag:   "max",
		},
		{
			name: "disallowed method",
			input: models.MonitorCreateRequest{
				Name:   "example",
				URL:    "https://example.test",
				Method: "DELETE",
			},
			wantField: "Method",
			wantTag:   "oneof",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() expected error, got nil")
			}

			found := false
			for _, fe := range err.Errors() {
				if fe.Field() == tt.wantField && fe.Tag() == tt.wantTag {
					found = true
				}
			}
			if !found {
				t.Errorf("ValidateStruct() errors = %v, want field %q tag %q",
					err.Errors(), tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestRequestValidationError_Message(t *testing.T) {
	// Single failure: message stands alone
	err := ValidateStruct(&models.MonitorCreateRequest{URL: "https://example.test"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := err.Message(); got != "Name is required" {
		t.Errorf("Message() = %q, want %q", got, "Name is required")
	}

	// Multiple failures: joined with field prefixes
	err = ValidateStruct(&models.MonitorCreateRequest{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Message()
	if !strings.Contains(msg, "Name:") || !strings.Contains(msg, "URL:") {
		t.Errorf("Message() = %q, want both field prefixes", msg)
	}
	if !strings.Contains(msg, "; ") {
		t.Errorf("Message() = %q, want '; ' separator", msg)
	}
}

func TestTranslateMinMaxMessages(t *testing.T) {
	type bounded struct {
		Label string `validate:"required,max=3"`
		Count int    `validate:"min=2"`
	}

	err := ValidateStruct(&bounded{Label: "abcd", Count: 1})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var labelMsg, countMsg string
	for _, fe := range err.Errors() {
		switch fe.Field() {
		case "Label":
			labelMsg = fe.Error()
		case "Count":
			countMsg = fe.Error()
		}
	}

	if labelMsg != "Label must be at most 3 characters" {
		t.Errorf("string max message = %q", labelMsg)
	}
	if countMsg != "Count must be at least 2" {
		t.Errorf("numeric min message = %q", countMsg)
	}
}
