package notification

import "github.com/vendorconnect/jobs/internal/model"

// MapPriority turns a task priority name into a notification priority.
// Unset and unknown names map to medium.
func MapPriority(name *string) model.NotificationPriority {
	if name == nil {
		return model.PriorityMedium
	}
	switch model.NormalizePriorityName(*name) {
	case "urgent":
		return model.PriorityUrgent
	case "high":
		return model.PriorityHigh
	case "low", "not urgent":
		return model.PriorityLow
	}
	return model.PriorityMedium
}
