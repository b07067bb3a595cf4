package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandWindow(t *testing.T) {
	tests := []struct {
		name     string
		window   Window
		duration int
		want     []int
	}{
		{
			name:     "one hour in 30 minute slots",
			window:   Window{Start: 9 * 60, End: 10 * 60},
			duration: 30,
			want:     []int{540, 570},
		},
		{
			name:     "trailing remainder is dropped",
			window:   Window{Start: 9 * 60, End: 10*60 + 20},
			duration: 30,
			want:     []int{540, 570},
		},
		{
			name:     "slot exactly fills the window",
			window:   Window{Start: 9 * 60, End: 9*60 + 45},
			duration: 45,
			want:     []int{540},
		},
		{
			name:     "duration longer than window",
			window:   Window{Start: 9 * 60, End: 9*60 + 30},
			duration: 60,
			want:     []int{},
		},
		{
			name:     "inverted window is empty, not an error",
			window:   Window{Start: 10 * 60, End: 9 * 60},
			duration: 30,
			want:     []int{},
		},
		{
			name:     "zero-width window",
			window:   Window{Start: 9 * 60, End: 9 * 60},
			duration: 30,
			want:     []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandWindow(tt.window, tt.duration)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestExpandWindow_Properties(t *testing.T) {
	windows := []Window{
		{Start: 0, End: 24 * 60},
		{Start: 9 * 60, End: 17 * 60},
		{Start: 8*60 + 15, End: 11*60 + 40},
	}
	durations := []int{15, 30, 45, 60, 90}

	for _, w := range windows {
		for _, d := range durations {
			starts := ExpandWindow(w, d)

			require.Len(t, starts, (w.End-w.Start)/d)

			for i, s := range starts {
				assert.GreaterOrEqual(t, s, w.Start)
				assert.LessOrEqual(t, s+d, w.End)
				if i > 0 {
					assert.Equal(t, starts[i-1]+d, s, "slots must be contiguous")
				}
			}
		}
	}
}

func TestExpandWindow_NonPositiveDuration(t *testing.T) {
	assert.Empty(t, ExpandWindow(Window{Start: 540, End: 600}, 0))
	assert.Empty(t, ExpandWindow(Window{Start: 540, End: 600}, -30))
}

func TestExpandWindows_MergesAndDedupes(t *testing.T) {
	windows := []Window{
		{Start: 13 * 60, End: 14 * 60},
		{Start: 9 * 60, End: 10 * 60},
		// overlaps the first window, produces the same 13:00 start
		{Start: 13 * 60, End: 13*60 + 30},
	}

	got := ExpandWindows(windows, 30)

	assert.Equal(t, []int{540, 570, 780, 810}, got)
}

func TestExpandWindows_Empty(t *testing.T) {
	assert.Empty(t, ExpandWindows(nil, 30))
	assert.Empty(t, ExpandWindows([]Window{}, 30))
}

func TestFormatMinute(t *testing.T) {
	assert.Equal(t, "09:00", FormatMinute(540))
	assert.Equal(t, "00:05", FormatMinute(5))
	assert.Equal(t, "23:59", FormatMinute(23*60+59))
}

func TestParseMinute(t *testing.T) {
	m, err := ParseMinute("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, m)

	_, err = ParseMinute("25:00")
	assert.Error(t, err)

	_, err = ParseMinute("bogus")
	assert.Error(t, err)
}
