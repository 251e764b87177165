package format

import (
	"testing"
	"time"
)

func TestNormalizeIssueKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"already normalized", "PROJ-123", "PROJ-123"},
		{"lowercase", "proj-123", "PROJ-123"},
		{"mixed case", "Proj-123", "PROJ-123"},
		{"surrounding whitespace", "  PROJ-123 ", "PROJ-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeIssueKey(tt.key); got != tt.want {
				t.Errorf("NormalizeIssueKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestValidateIssueKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"simple key", "PROJ-123", false},
		{"single letter project", "A-1", false},
		{"digits in project", "AB2-42", false},
		{"missing number", "PROJ-", true},
		{"missing project", "-123", true},
		{"lowercase", "proj-123", true},
		{"empty", "", true},
		{"jql fragment", "project = PROJ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateIssueKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIssueKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestParseJiraTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{
			name: "jira cloud format",
			in:   "2024-01-15T10:30:00.000+0000",
			want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.FixedZone("", 0)),
		},
		{
			name: "no millis",
			in:   "2024-01-15T10:30:00+0100",
			want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.FixedZone("", 3600)),
		},
		{
			name: "rfc3339",
			in:   "2024-01-15T10:30:00Z",
			want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			in:      "not a time",
			wantErr: true,
		},
		{
			name:    "empty",
			in:      "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseJiraTime(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseJiraTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && !got.Equal(tt.want) {
				t.Errorf("ParseJiraTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    string
		max  int
		want string
	}{
		{"shorter than max", "short", 10, "short"},
		{"exactly max", "12345", 5, "12345"},
		{"truncated", "a long summary line", 10, "a long su…"},
		{"max one", "abc", 1, "…"},
		{"max zero", "abc", 0, ""},
		{"multibyte runes", "ブロッカー修正", 4, "ブロッ…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tt.s, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.max, got, tt.want)
			}
		})
	}
}

func TestRelativeTimeFrom(t *testing.T) {
	now := time.Date(2026, 1, 31, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{
			name: "just now",
			t:    now.Add(-1 * time.Second),
			want: "just now",
		},
		{
			name: "seconds ago",
			t:    now.Add(-30 * time.Second),
			want: "30s ago",
		},
		{
			name: "minutes ago",
			t:    now.Add(-5 * time.Minute),
			want: "5m ago",
		},
		{
			name: "hours ago",
			t:    now.Add(-3 * time.Hour),
			want: "3h ago",
		},
		{
			name: "yesterday",
			t:    now.Add(-24 * time.Hour),
			want: "yesterday",
		},
		{
			name: "2 days ago",
			t:    now.Add(-48 * time.Hour),
			want: "2d ago",
		},
		{
			name: "6 days ago",
			t:    now.Add(-6 * 24 * time.Hour),
			want: "6d ago",
		},
		{
			name: "week or more shows date",
			t:    now.Add(-7 * 24 * time.Hour),
			want: "2026-01-24",
		},
		{
			name: "old date",
			t:    time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
			want: "2025-06-15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RelativeTimeFrom(tt.t, now)
			if got != tt.want {
				t.Errorf("RelativeTimeFrom() = %q, want %q", got, tt.want)
			}
		})
	}
}
