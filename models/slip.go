package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// SlipMode names the two time-slip shapes.
type SlipMode string

const (
	SlipModeDrag SlipMode = "drag"
	SlipModeRoll SlipMode = "roll"
)

// RedLightSentinel is the reaction the drag simulator reports for a false start.
const RedLightSentinel = 999.999

// Slip is one participant's time slip. It is either a DragSlip or a RollSlip.
type Slip interface {
	Mode() SlipMode
	// ReactionSeconds is the raw reaction time as reported by the simulator.
	ReactionSeconds() float64
	// Metric is the number the winner is decided on; lower wins.
	Metric() float64
	// RedLight flags a false start for display. It does not decide the race.
	RedLight() bool
	Validate() error
}

// DragSlip is produced by simple and pro matches.
type DragSlip struct {
	ReactionTime   float64 `json:"reaction_time_s"`
	SixtyFoot      float64 `json:"sixty_foot_s"`
	EighthMileET   float64 `json:"eighth_mile_et_s"`
	EighthMileMPH  float64 `json:"eighth_mile_mph"`
	QuarterMileET  float64 `json:"quarter_mile_et_s"`
	QuarterMileMPH float64 `json:"quarter_mile_mph"`
}

func (d DragSlip) Mode() SlipMode           { return SlipModeDrag }
func (d DragSlip) ReactionSeconds() float64 { return d.ReactionTime }
func (d DragSlip) RedLight() bool           { return isRedLight(d.ReactionTime) }

// Metric for drag races is reaction time only. Elapsed and trap numbers are
// recorded but do not decide the race.
func (d DragSlip) Metric() float64 { return d.ReactionTime }

func (d DragSlip) Validate() error {
	return validateFields(map[string]float64{
		"sixty_foot_s":      d.SixtyFoot,
		"eighth_mile_et_s":  d.EighthMileET,
		"eighth_mile_mph":   d.EighthMileMPH,
		"quarter_mile_et_s": d.QuarterMileET,
		"quarter_mile_mph":  d.QuarterMileMPH,
	}, d.ReactionTime)
}

// RollSlip is produced by roll matches (60-130 mph pull).
type RollSlip struct {
	ReactionTime         float64 `json:"reaction_time_s"`
	SixtyToHundred       float64 `json:"sixty_to_hundred_s"`
	HundredToOneTwenty   float64 `json:"hundred_to_one_twenty_s"`
	OneTwentyToOneThirty float64 `json:"one_twenty_to_one_thirty_s"`
	Total                float64 `json:"total_s"`
}

func (r RollSlip) Mode() SlipMode           { return SlipModeRoll }
func (r RollSlip) ReactionSeconds() float64 { return r.ReactionTime }
func (r RollSlip) RedLight() bool           { return isRedLight(r.ReactionTime) }
func (r RollSlip) Metric() float64          { return r.Total }

func (r RollSlip) Validate() error {
	return validateFields(map[string]float64{
		"sixty_to_hundred_s":         r.SixtyToHundred,
		"hundred_to_one_twenty_s":    r.HundredToOneTwenty,
		"one_twenty_to_one_thirty_s": r.OneTwentyToOneThirty,
		"total_s":                    r.Total,
	}, r.ReactionTime)
}

func isRedLight(reaction float64) bool {
	return reaction < 0 || reaction >= RedLightSentinel
}

func validateFields(fields map[string]float64, reaction float64) error {
	if math.IsNaN(reaction) || math.IsInf(reaction, 0) {
		return errors.New("reaction_time_s must be a finite number")
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite number", name)
		}
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// ReactionMillis converts a slip's reaction to milliseconds.
func ReactionMillis(s Slip) float64 {
	return s.ReactionSeconds() * 1000
}

// SlipColumn stores a Slip as tagged JSON in a single text column.
type SlipColumn struct {
	Slip Slip
}

func (c SlipColumn) MarshalJSON() ([]byte, error) {
	if c.Slip == nil {
		return []byte("null"), nil
	}
	switch c.Slip.(type) {
	case DragSlip, RollSlip:
	default:
		return nil, fmt.Errorf("unknown slip type %T", c.Slip)
	}
	raw, err := json.Marshal(c.Slip)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["mode"] = c.Slip.Mode()
	fields["red_light"] = c.Slip.RedLight()
	return json.Marshal(fields)
}

func (c *SlipColumn) UnmarshalJSON(data []byte) error {
	var head struct {
		Mode SlipMode `json:"mode"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	switch head.Mode {
	case SlipModeDrag:
		var d DragSlip
		if err := json.Unmarshal(data, &d); err != nil {
			return err
		}
		c.Slip = d
	case SlipModeRoll:
		var r RollSlip
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		c.Slip = r
	default:
		return fmt.Errorf("unknown slip mode %q", head.Mode)
	}
	return nil
}

// Value implements driver.Valuer.
func (c SlipColumn) Value() (driver.Value, error) {
	if c.Slip == nil {
		return nil, nil
	}
	b, err := c.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *SlipColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		c.Slip = nil
		return nil
	case []byte:
		return c.UnmarshalJSON(v)
	case string:
		return c.UnmarshalJSON([]byte(v))
	}
	return fmt.Errorf("cannot scan %T into SlipColumn", src)
}
