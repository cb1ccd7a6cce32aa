package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, int64(60*1000+1000+120), parseDuration("00:01:01.12"))
	assert.Equal(t, int64(60*60*1000+60*1000+1000+120), parseDuration("01:01:01.12"))
	assert.Equal(t, int64(60*1000+1000+120), parseDuration("1:01.12"))
	assert.Equal(t, int64(120), parseDuration("0:00.12"))
	assert.Equal(t, int64(120), parseDuration("00:00:00.12"))
}

func TestParseTimeLines(t *testing.T) {
	assert.Equal(t, int64(2*1000+50), parseDurationLine("\tElapsed (wall clock) time (h:mm:ss or m:ss): 0:02.05"))
	assert.Equal(t, float32(12), parseMemoryLine("\tMaximum resident set size (kbytes): 12288"))
	assert.Equal(t, int64(97), parseCpuPercentageLine("\tPercent of CPU this job got: 97%"))
}

func TestGetTests(t *testing.T) {
	tests := getTests()
	assert.NotEmpty(t, tests)

	for _, test := range tests {
		assert.Positive(t, test.Courses, test.Name)
		assert.GreaterOrEqual(t, test.Sessions, test.Courses, test.Name)
	}

	overloaded, found := TestMetadata{}, false
	for _, test := range tests {
		if test.Name == infeasibleTestDirectory+"overloaded.json" {
			overloaded, found = test, true
		}
	}
	assert.True(t, found)
	assert.False(t, overloaded.Feasible)
	assert.Equal(t, 8, overloaded.Sessions)
}
