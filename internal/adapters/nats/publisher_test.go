package natsadapter_test

import (
	"testing"

	natsadapter "github.com/samirrijal/earthimagery/internal/adapters/nats"
)

func TestThumbnailSubject(t *testing.T) {
	if got := natsadapter.ThumbnailSubject(2020); got != "imagery.thumbnail.2020" {
		t.Errorf("unexpected subject %q", got)
	}
}

func TestSubjectYear(t *testing.T) {
	tests := []struct {
		subject string
		year    int
		ok      bool
	}{
		{natsadapter.ThumbnailSubject(1999), 1999, true},
		{"imagery.thumbnail.2020", 2020, true},
		{"imagery.thumbnail.", 0, false},
		{"imagery.thumbnail.abc", 0, false},
		{"transit.delay.2020", 0, false},
	}
	for _, tt := range tests {
		year, ok := natsadapter.SubjectYear(tt.subject)
		if year != tt.year || ok != tt.ok {
			t.Errorf("SubjectYear(%q) = %d, %v; want %d, %v", tt.subject, year, ok, tt.year, tt.ok)
		}
	}
}
