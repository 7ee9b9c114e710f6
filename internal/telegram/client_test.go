package telegram

import (
	"strings"
	"testing"

	"github.com/frc-analytics/zebratrace/internal/models"
)

func TestEscapeMarkdownV2(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2024casj", "2024casj"},
		{"qm1.2", "qm1\\.2"},
		{"a-b_c", "a\\-b\\_c"},
		{"(14.25)", "\\(14\\.25\\)"},
	}
	for _, tc := range cases {
		if got := escapeMarkdownV2(tc.in); got != tc.want {
			t.Errorf("escape %q: got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatRunSummary(t *testing.T) {
	g := models.GlobalSummary{
		MaxSpeed:        14.25,
		AvgMaxSpeed:     12.5,
		MaxAcceleration: 9.1,
		MaxBraking:      -10.75,
	}
	msg := formatRunSummary(254, "2024casj", 9, g)

	for _, want := range []string{
		"frc254",
		"2024casj",
		"9 matches",
		"14\\.25",
		"12\\.5",
		"9\\.1",
		"\\-10\\.75",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	// Unescaped reserved characters break MarkdownV2 parsing.
	if strings.Contains(msg, " -10.75") {
		t.Error("negative braking value not escaped")
	}
}
