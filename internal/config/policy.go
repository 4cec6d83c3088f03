package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/example/room-booking/internal/booking"
)

// policyFile is the JSON shape of a weekly policy file. Day keys are
// lowercase English weekday names; missing days get no windows.
type policyFile map[string]policyDay

type policyDay struct {
	Windows       []policyWindow `json:"windows"`
	AllowOverride bool           `json:"allow_override"`
}

type policyWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// LoadPolicy reads a weekly policy from a JSON file. An empty path returns
// the built-in default policy.
func LoadPolicy(path string) (booking.WeeklyPolicy, error) {
	if path == "" {
		return DefaultWeeklyPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return booking.WeeklyPolicy{}, fmt.Errorf("read policy file: %w", err)
	}

	var file policyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return booking.WeeklyPolicy{}, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	var policy booking.WeeklyPolicy
	for name, day := range file {
		weekday, ok := weekdayNames[name]
		if !ok {
			return booking.WeeklyPolicy{}, fmt.Errorf("policy file %s: unknown day %q", path, name)
		}

		dp := booking.DayPolicy{AllowOverride: day.AllowOverride}
		for _, w := range day.Windows {
			start, err := booking.ParseClock(w.Start)
			if err != nil {
				return booking.WeeklyPolicy{}, fmt.Errorf("policy file %s: day %s: %w", path, name, err)
			}
			end, err := booking.ParseClock(w.End)
			if err != nil {
				return booking.WeeklyPolicy{}, fmt.Errorf("policy file %s: day %s: %w", path, name, err)
			}
			if start >= end {
				return booking.WeeklyPolicy{}, fmt.Errorf("policy file %s: day %s: window %s-%s is empty", path, name, w.Start, w.End)
			}
			dp.Windows = append(dp.Windows, booking.Window{Start: start, End: end})
		}
		policy[weekday] = dp
	}

	return policy, nil
}

// DefaultWeeklyPolicy returns the school timetable used when no policy
// file is configured: split morning/afternoon shifts on weekdays, with
// Friday afternoons ending early, and wide open weekends where privileged
// users may book outside the windows.
func DefaultWeeklyPolicy() booking.WeeklyPolicy {
	clock := func(h, m int) booking.MinuteOfDay {
		return booking.MinuteOfDay(h*60 + m)
	}

	weekday := booking.DayPolicy{
		Windows: []booking.Window{
			{Start: clock(7, 45), End: clock(11, 15)},
			{Start: clock(13, 15), End: clock(16, 45)},
		},
	}
	friday := booking.DayPolicy{
		Windows: []booking.Window{
			{Start: clock(7, 45), End: clock(11, 15)},
			{Start: clock(13, 15), End: clock(15, 15)},
		},
	}
	weekend := booking.DayPolicy{
		Windows: []booking.Window{
			{Start: clock(7, 0), End: clock(22, 0)},
		},
		AllowOverride: true,
	}

	var policy booking.WeeklyPolicy
	policy[time.Sunday] = weekend
	policy[time.Monday] = weekday
	policy[time.Tuesday] = weekday
	policy[time.Wednesday] = weekday
	policy[time.Thursday] = weekday
	policy[time.Friday] = friday
	policy[time.Saturday] = weekend
	return policy
}
