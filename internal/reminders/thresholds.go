package reminders

import "time"

// Threshold is one reminder lead-time. An appointment matches when its start
// lies in [now+Min, now+Max].
type Threshold struct {
	Name       string
	Min        time.Duration
	Max        time.Duration
	sentColumn string
}

var (
	Threshold24h = Threshold{Name: "24h", Min: 23 * time.Hour, Max: 25 * time.Hour, sentColumn: "reminder_sent_24h"}
	Threshold2h  = Threshold{Name: "2h", Min: time.Hour + 55*time.Minute, Max: 2*time.Hour + 5*time.Minute, sentColumn: "reminder_sent_2h"}
	Threshold1h  = Threshold{Name: "1h", Min: 55 * time.Minute, Max: time.Hour + 5*time.Minute, sentColumn: "reminder_sent_1h"}
)

// Thresholds returns the reminder thresholds in processing order.
func Thresholds() []Threshold {
	return []Threshold{Threshold24h, Threshold2h, Threshold1h}
}

// Window returns the inclusive bounds of appointment starts matched at now.
func (t Threshold) Window(now time.Time) (from, to time.Time) {
	return now.Add(t.Min), now.Add(t.Max)
}

// Contains reports whether startsAt falls inside the window evaluated at now.
func (t Threshold) Contains(now, startsAt time.Time) bool {
	from, to := t.Window(now)
	return !startsAt.Before(from) && !startsAt.After(to)
}

// Width is the window length. A scan interval longer than the narrowest
// width could step over an appointment entirely.
func (t Threshold) Width() time.Duration {
	return t.Max - t.Min
}

// SentColumn is the appointments column holding this threshold's sent-flag.
func (t Threshold) SentColumn() string {
	return t.sentColumn
}

// MaxScanInterval is the longest tick spacing that still lands a scan inside
// every threshold window.
func MaxScanInterval() time.Duration {
	var narrowest time.Duration
	for i, t := range Thresholds() {
		if i == 0 || t.Width() < narrowest {
			narrowest = t.Width()
		}
	}
	return narrowest
}

func thresholdByColumn(column string) (Threshold, bool) {
	for _, t := range Thresholds() {
		if t.sentColumn == column {
			return t, true
		}
	}
	return Threshold{}, false
}
