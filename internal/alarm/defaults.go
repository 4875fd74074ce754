package alarm

// Defaults holds the values used when a reminder parameter is absent.
type Defaults struct {
	AlarmID        int    `json:"alarmId"`
	Hour           int    `json:"hour"`
	Minute         int    `json:"minute"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	Payload        string `json:"payload"`
	OneShotSeconds int    `json:"oneShotSeconds"`

	Channel    Channel `json:"channel"`
	DrinkLabel string  `json:"drinkLabel"`
	SkipLabel  string  `json:"skipLabel"`
}

// DefaultReminder returns the stock hydration reminder settings.
func DefaultReminder() Defaults {
	return Defaults{
		AlarmID:        0,
		Hour:           9,
		Minute:         0,
		Title:          "Time to Hydrate! 💧",
		Body:           "Remember to log your water intake and stay hydrated!",
		OneShotSeconds: 30,
		Channel: Channel{
			ID:          "water_reminder_channel",
			Name:        "Water Reminders",
			Description: "Daily hydration reminder notifications",
			Importance:  ImportanceHigh,
			Vibrate:     true,
		},
		DrinkLabel: "I Drank Water",
		SkipLabel:  "Skip",
	}
}

// Spec returns the reminder a wake without attached data stands for.
func (d Defaults) Spec() AlarmSpec {
	return AlarmSpec{
		AlarmID: d.AlarmID,
		Hour:    d.Hour,
		Minute:  d.Minute,
		Title:   d.Title,
		Body:    d.Body,
		Payload: d.Payload,
	}
}

// DailyParams are the optional inputs of a daily scheduling command.
// A nil field takes its value from Defaults.
type DailyParams struct {
	AlarmID *int    `json:"alarmId,omitempty"`
	Hour    *int    `json:"hour,omitempty"`
	Minute  *int    `json:"minute,omitempty"`
	Title   *string `json:"title,omitempty"`
	Body    *string `json:"body,omitempty"`
	Payload *string `json:"payload,omitempty"`
}

// Resolve fills absent parameters from d.
func (d Defaults) Resolve(p DailyParams) AlarmSpec {
	spec := d.Spec()
	if p.AlarmID != nil {
		spec.AlarmID = *p.AlarmID
	}
	if p.Hour != nil {
		spec.Hour = *p.Hour
	}
	if p.Minute != nil {
		spec.Minute = *p.Minute
	}
	if p.Title != nil {
		spec.Title = *p.Title
	}
	if p.Body != nil {
		spec.Body = *p.Body
	}
	if p.Payload != nil {
		spec.Payload = *p.Payload
	}
	return spec
}

// OneShotSecondsOr returns seconds when set, the default otherwise.
func (d Defaults) OneShotSecondsOr(seconds *int) int {
	if seconds == nil {
		return d.OneShotSeconds
	}
	return *seconds
}

// AlarmIDOr returns id when set, the default otherwise.
func (d Defaults) AlarmIDOr(id *int) int {
	if id == nil {
		return d.AlarmID
	}
	return *id
}
