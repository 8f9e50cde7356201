package queue

import "clinicfront/models"

// Dashboard actions on a single entry.
const (
	ActionServe  = "serve"
	ActionDone   = "done"
	ActionNoShow = "no_show"
	ActionDelete = "delete"
)

// transitionMap lists the statuses each action is meant to start from.
// The API has the final word; this only drives which buttons are offered.
var transitionMap = map[string][]models.QueueStatus{
	ActionServe:  {models.StatusWaiting},
	ActionDone:   {models.StatusServing},
	ActionNoShow: {models.StatusWaiting, models.StatusServing},
	ActionDelete: {models.StatusWaiting, models.StatusServing, models.StatusDone, models.StatusNoShow},
}

func ValidTransition(action string, from models.QueueStatus) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == from {
			return true
		}
	}
	return false
}

// KnownAction reports whether action is a dashboard action at all.
func KnownAction(action string) bool {
	_, ok := transitionMap[action]
	return ok
}
