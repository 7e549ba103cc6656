package services

import (
	"sort"
	"strings"

	"grudge-match-system/models"
)

// ResultPayload is the wire shape of a submitted time slip. Every field is
// optional on the wire; ToSlip decides which ones the match's mode requires.
type ResultPayload struct {
	ReactionTime *float64 `json:"reaction_time_s"`

	// drag
	SixtyFoot      *float64 `json:"sixty_foot_s,omitempty"`
	EighthMileET   *float64 `json:"eighth_mile_et_s,omitempty"`
	EighthMileMPH  *float64 `json:"eighth_mile_mph,omitempty"`
	QuarterMileET  *float64 `json:"quarter_mile_et_s,omitempty"`
	QuarterMileMPH *float64 `json:"quarter_mile_mph,omitempty"`

	// roll
	SixtyToHundred       *float64 `json:"sixty_to_hundred_s,omitempty"`
	HundredToOneTwenty   *float64 `json:"hundred_to_one_twenty_s,omitempty"`
	OneTwentyToOneThirty *float64 `json:"one_twenty_to_one_thirty_s,omitempty"`
	Total                *float64 `json:"total_s,omitempty"`
}

func (p ResultPayload) dragFields() map[string]*float64 {
	return map[string]*float64{
		"sixty_foot_s":      p.SixtyFoot,
		"eighth_mile_et_s":  p.EighthMileET,
		"eighth_mile_mph":   p.EighthMileMPH,
		"quarter_mile_et_s": p.QuarterMileET,
		"quarter_mile_mph":  p.QuarterMileMPH,
	}
}

func (p ResultPayload) rollFields() map[string]*float64 {
	return map[string]*float64{
		"sixty_to_hundred_s":         p.SixtyToHundred,
		"hundred_to_one_twenty_s":    p.HundredToOneTwenty,
		"one_twenty_to_one_thirty_s": p.OneTwentyToOneThirty,
		"total_s":                    p.Total,
	}
}

// ToSlip converts the payload into the slip variant for mode. Missing fields of
// that mode, or fields that belong to the other mode, are invalid input.
func (p ResultPayload) ToSlip(mode models.SlipMode) (models.Slip, error) {
	want, foreign := p.dragFields(), p.rollFields()
	if mode == models.SlipModeRoll {
		want, foreign = foreign, want
	}

	var missing []string
	if p.ReactionTime == nil {
		missing = append(missing, "reaction_time_s")
	}
	for name, v := range want {
		if v == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, invalid(ErrMissingField, "%s", strings.Join(missing, ", "))
	}

	var extra []string
	for name, v := range foreign {
		if v != nil {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, invalid(ErrInvalidPayload, "fields not valid for %s results: %s", mode, strings.Join(extra, ", "))
	}

	var slip models.Slip
	switch mode {
	case models.SlipModeDrag:
		slip = models.DragSlip{
			ReactionTime:   *p.ReactionTime,
			SixtyFoot:      *p.SixtyFoot,
			EighthMileET:   *p.EighthMileET,
			EighthMileMPH:  *p.EighthMileMPH,
			QuarterMileET:  *p.QuarterMileET,
			QuarterMileMPH: *p.QuarterMileMPH,
		}
	case models.SlipModeRoll:
		slip = models.RollSlip{
			ReactionTime:         *p.ReactionTime,
			SixtyToHundred:       *p.SixtyToHundred,
			HundredToOneTwenty:   *p.HundredToOneTwenty,
			OneTwentyToOneThirty: *p.OneTwentyToOneThirty,
			Total:                *p.Total,
		}
	default:
		return nil, invalid(ErrInvalidPayload, "unknown mode %q", mode)
	}

	if err := slip.Validate(); err != nil {
		return nil, invalid(ErrInvalidPayload, "%v", err)
	}
	return slip, nil
}
