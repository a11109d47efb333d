package detector_test

import (
	"reflect"
	"testing"

	"github.com/arassiq/SafeSenior/internal/detector"
)

func TestExtractIndicators(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "irs style call",
			text:     "An IRS agent issued an arrest warrant, pay with a gift card now.",
			expected: []string{"gift card payment demand", "fake arrest threats", "IRS impersonation"},
		},
		{
			name:     "case insensitive",
			text:     "BUY A GIFT CARD OR FACE AN ARREST WARRANT",
			expected: []string{"gift card payment demand", "fake arrest threats"},
		},
		{
			name:     "family emergency",
			text:     "He said grandma must send bail money and do not hang up.",
			expected: []string{"psychological pressure", "family emergency scam"},
		},
		{
			name:     "clean call",
			text:     "Your dentist appointment is confirmed for Tuesday at ten.",
			expected: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := detector.ExtractIndicators(tc.text)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestExtractIndicators_CapsAtFive(t *testing.T) {
	text := "gift card arrest warrant irs agent medicare representative virus alert immediate payment do not hang up"

	got := detector.ExtractIndicators(text)
	if len(got) != 5 {
		t.Fatalf("expected 5 indicators, got %d: %v", len(got), got)
	}

	expected := []string{
		"gift card payment demand",
		"fake arrest threats",
		"IRS impersonation",
		"Medicare impersonation",
		"fake virus warnings",
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}
