package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHours(t *testing.T) {
	t.Run("valid window", func(t *testing.T) {
		_, err := NewHours("09:00", "18:00")
		assert.NoError(t, err)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := NewHours("18:00", "09:00")
		assert.Error(t, err)
	})

	t.Run("malformed start", func(t *testing.T) {
		_, err := NewHours("9am", "18:00")
		assert.Error(t, err)
	})

	t.Run("malformed end", func(t *testing.T) {
		_, err := NewHours("09:00", "25:00")
		assert.Error(t, err)
	})
}

func TestWithin(t *testing.T) {
	hours, err := NewHours("09:00", "18:00")
	assert.NoError(t, err)

	tests := []struct {
		name      string
		timeOfDay string
		expected  bool
	}{
		{"start boundary is inside", "09:00", true},
		{"end boundary is inside", "18:00", true},
		{"midday is inside", "13:30", true},
		{"one minute before start", "08:59", false},
		{"one minute after end", "18:01", false},
		{"midnight is outside", "00:00", false},
		{"late evening is outside", "23:59", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			within, err := hours.Within(tc.timeOfDay)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, within)
		})
	}
}

func TestWithinRejectsMalformedInput(t *testing.T) {
	hours, err := NewHours("09:00", "18:00")
	assert.NoError(t, err)

	for _, input := range []string{"", "10", "10:0", "10:5", "aa:bb", "24:00", "10:60", "-1:00"} {
		t.Run(input, func(t *testing.T) {
			_, err := hours.Within(input)
			assert.Error(t, err)
		})
	}
}
