package services

import "grudge-match-system/models"

// DetermineWinner picks the winning role from two slips of the same mode. The
// lower metric wins (reaction time for drag, total 60-130 for roll) and an
// exact tie goes to the opponent. A false start needs no special case: the
// simulators report it with values that lose on the metric.
func DetermineWinner(challenger, opponent models.Slip) models.Role {
	if challenger.Metric() < opponent.Metric() {
		return models.RoleChallenger
	}
	return models.RoleOpponent
}
