package alarm

// OneShotSlot is the registration key shared by every one-shot alarm.
// Scheduling a new one-shot alarm replaces the pending one.
const OneShotSlot = 0

// Notification action identifiers.
const (
	ActionDrink = "action_drink"
	ActionSkip  = "action_skip"
)

// AlarmSpec identifies one recurring daily reminder.
type AlarmSpec struct {
	// AlarmID is the wake registration key and the notification id.
	AlarmID int    `json:"alarmId"`
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	// Payload is forwarded unchanged to the action callbacks.
	Payload string `json:"payload"`
}

// Valid reports whether the time of day is within 00:00-23:59.
func (s AlarmSpec) Valid() bool {
	return s.Hour >= 0 && s.Hour <= 23 && s.Minute >= 0 && s.Minute <= 59
}

// NotificationAction is produced when the user taps a notification action.
type NotificationAction struct {
	ActionID string `json:"actionId"`
	Payload  string `json:"payload"`
}

// IsKnownAction reports whether id is one of the two reminder actions.
func IsKnownAction(id string) bool {
	return id == ActionDrink || id == ActionSkip
}
