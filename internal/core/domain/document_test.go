package domain

import "testing"

func TestParseOCRStatus(t *testing.T) {
	valid := map[string]OCRStatus{
		"pending":    StatusPending,
		"processing": StatusProcessing,
		"completed":  StatusCompleted,
		"failed":     StatusFailed,
	}
	for raw, want := range valid {
		got, err := ParseOCRStatus(raw)
		if err != nil {
			t.Fatalf("ParseOCRStatus(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseOCRStatus(%q) = %s, want %s", raw, got, want)
		}
	}

	for _, raw := range []string{"", "done", "PENDING", "in_progress"} {
		if _, err := ParseOCRStatus(raw); !IsKind(err, ErrInvalidInput) {
			t.Fatalf("ParseOCRStatus(%q): expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestTerminal(t *testing.T) {
	cases := map[OCRStatus]bool{
		StatusPending:    false,
		StatusProcessing: false,
		StatusCompleted:  true,
		StatusFailed:     true,
	}
	for status, want := range cases {
		doc := Document{OCRStatus: status}
		if doc.Terminal() != want {
			t.Fatalf("Terminal() for %s = %v, want %v", status, doc.Terminal(), want)
		}
	}
}
