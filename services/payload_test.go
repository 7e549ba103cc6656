package services

import (
	"testing"

	"grudge-match-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSlipDrag(t *testing.T) {
	slip, err := dragPayload(0.412).ToSlip(models.SlipModeDrag)
	require.NoError(t, err)
	d, ok := slip.(models.DragSlip)
	require.True(t, ok)
	assert.Equal(t, 0.412, d.ReactionTime)
	assert.Equal(t, 11.62, d.QuarterMileET)
}

func TestToSlipRoll(t *testing.T) {
	slip, err := rollPayload(0.3, 7.21).ToSlip(models.SlipModeRoll)
	require.NoError(t, err)
	assert.Equal(t, models.SlipModeRoll, slip.Mode())
	assert.Equal(t, 7.21, slip.Metric())
}

func TestToSlipListsMissingFields(t *testing.T) {
	p := ResultPayload{ReactionTime: f(0.4), Total: f(7)}
	_, err := p.ToSlip(models.SlipModeRoll)
	require.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "hundred_to_one_twenty_s, one_twenty_to_one_thirty_s, sixty_to_hundred_s")

	_, err = ResultPayload{SixtyFoot: f(1.7)}.ToSlip(models.SlipModeDrag)
	require.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "reaction_time_s")
}

func TestToSlipRejectsNegativeSplits(t *testing.T) {
	p := dragPayload(0.4)
	p.EighthMileMPH = f(-90)
	_, err := p.ToSlip(models.SlipModeDrag)
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestToSlipAcceptsRedLight(t *testing.T) {
	slip, err := dragPayload(models.RedLightSentinel).ToSlip(models.SlipModeDrag)
	require.NoError(t, err)
	assert.True(t, slip.RedLight())
}
