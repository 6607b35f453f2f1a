package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDateTime(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	p := MSGraph(WithTimezone(london))

	moment := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)
	got := p.BuildDateTime(moment)

	assert.Equal(t, "2024-06-15T13:30:00", got.DateTime)
	assert.Equal(t, "GMT Standard Time", got.TimeZone)
}

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		name    string
		input   DateTimeTimeZone
		want    time.Time
		wantErr bool
	}{
		{
			name:  "utc",
			input: DateTimeTimeZone{DateTime: "2024-06-15T12:30:00", TimeZone: "UTC"},
			want:  time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC),
		},
		{
			name:  "fractional seconds dropped",
			input: DateTimeTimeZone{DateTime: "2024-06-15T12:30:00.0000000", TimeZone: "UTC"},
			want:  time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC),
		},
		{
			name:  "windows timezone name",
			input: DateTimeTimeZone{DateTime: "2024-06-15T13:30:00", TimeZone: "GMT Standard Time"},
			want:  time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC),
		},
		{
			name:  "unknown zone falls back to utc",
			input: DateTimeTimeZone{DateTime: "2024-06-15T12:30:00", TimeZone: "Nowhere Standard Time"},
			want:  time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC),
		},
		{
			name:    "empty value",
			input:   DateTimeTimeZone{},
			wantErr: true,
		},
		{
			name:    "garbage value",
			input:   DateTimeTimeZone{DateTime: "not-a-date", TimeZone: "UTC"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateTime(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}
