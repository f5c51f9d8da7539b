package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActivityTypeNormalizes(t *testing.T) {
	parsed, err := ParseActivityType("  Walk ")
	require.NoError(t, err)
	assert.Equal(t, ActivityWalk, parsed)

	_, err = ParseActivityType("swim")
	assert.Error(t, err)
}

func TestActivityTypeValidIsExact(t *testing.T) {
	for _, activity := range ActivityTypes {
		assert.True(t, activity.Valid(), string(activity))
	}
	assert.False(t, ActivityType("Walk").Valid())
	assert.False(t, ActivityType(" run").Valid())
	assert.False(t, ActivityType("").Valid())
}
