package validate

import "testing"

func TestIsEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last+tag@sub.domain.org",
		"UPPER@CASE.IO",
	}
	for _, s := range valid {
		if !IsEmail(s) {
			t.Errorf("Expected %q to be a valid email", s)
		}
	}

	invalid := []string{
		"",
		"plainstring",
		"@missing.local",
		"user@host",
		"user @example.com",
	}
	for _, s := range invalid {
		if IsEmail(s) {
			t.Errorf("Expected %q to be invalid", s)
		}
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID("a2f3c8a0-1b2c-4d5e-8f90-abcdef012345") {
		t.Error("Expected valid UUID")
	}
	if IsUUID("not-a-uuid") {
		t.Error("Expected invalid UUID")
	}
	if IsUUID("") {
		t.Error("Expected empty string to be invalid")
	}
}
