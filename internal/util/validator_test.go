package util

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTitle_Valid(t *testing.T) {
	testCases := []string{"Buy milk", "  padded  ", strings.Repeat("a", MaxTitleLen)}

	for _, title := range testCases {
		if err := ValidateTitle(title); err != nil {
			t.Errorf("ValidateTitle(%q) error = %v, want nil", title, err)
		}
	}
}

func TestValidateTitle_Invalid(t *testing.T) {
	testCases := []string{"", "   ", "\t\n", strings.Repeat("a", MaxTitleLen+1)}

	for _, title := range testCases {
		err := ValidateTitle(title)
		if err == nil {
			t.Errorf("ValidateTitle(%q) error = nil, want error", title)
			continue
		}
		var ve ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("ValidateTitle(%q) error type = %T, want ValidationError", title, err)
		}
	}
}

func TestValidateDescription(t *testing.T) {
	if err := ValidateDescription(""); err != nil {
		t.Errorf("ValidateDescription(\"\") error = %v", err)
	}
	if err := ValidateDescription(strings.Repeat("d", MaxDescriptionLen+1)); err == nil {
		t.Error("ValidateDescription() with long text error = nil, want error")
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"ann@x.com", "first.last@example.co.uk", "a+tag@mail.org"}
	for _, e := range valid {
		if err := ValidateEmail(e); err != nil {
			t.Errorf("ValidateEmail(%q) error = %v, want nil", e, err)
		}
	}

	invalid := []string{"", "plain", "@x.com", "ann@", "ann@x"}
	for _, e := range invalid {
		if err := ValidateEmail(e); err == nil {
			t.Errorf("ValidateEmail(%q) error = nil, want error", e)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("secret1"); err != nil {
		t.Errorf("ValidatePassword(secret1) error = %v", err)
	}
	if err := ValidatePassword("12345"); err == nil {
		t.Error("ValidatePassword(12345) error = nil, want error")
	}
}

func TestParseDueDate(t *testing.T) {
	got, err := ParseDueDate("")
	if err != nil || got != nil {
		t.Errorf("ParseDueDate(\"\") = %v, %v; want nil, nil", got, err)
	}

	for _, s := range []string{"2025-06-15", "2025-06-15T10:00:00", "2025-06-15T10:00:00Z", "2025-06-15T10:00:00+08:00"} {
		got, err := ParseDueDate(s)
		if err != nil || got == nil {
			t.Errorf("ParseDueDate(%q) = %v, %v; want date", s, got, err)
			continue
		}
		if got.Year() != 2025 || got.Month() != 6 {
			t.Errorf("ParseDueDate(%q) = %v", s, got)
		}
	}

	if _, err := ParseDueDate("15/06/2025"); err == nil {
		t.Error("ParseDueDate(15/06/2025) error = nil, want error")
	}
}
