package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Continuous is the stored marker for a 24/7 schedule exempt from lateness.
const Continuous = "24/7"

// Schedule is an employee's planned day start. A continuous schedule has no
// planned start and is never counted late.
type Schedule struct {
	continuous bool
	hour       int
	minute     int
}

func NewContinuous() Schedule {
	return Schedule{continuous: true}
}

func New(hour, minute int) (Schedule, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Schedule{}, fmt.Errorf("invalid plan start %02d:%02d", hour, minute)
	}
	return Schedule{hour: hour, minute: minute}, nil
}

// Parse interprets a stored plan start. Empty or unparsable values are
// treated as continuous rather than failing a sync run.
func Parse(raw string) Schedule {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == Continuous {
		return NewContinuous()
	}
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return NewContinuous()
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return NewContinuous()
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return NewContinuous()
	}
	s, err := New(hour, minute)
	if err != nil {
		return NewContinuous()
	}
	return s
}

func (s Schedule) IsContinuous() bool { return s.continuous }
func (s Schedule) Hour() int          { return s.hour }
func (s Schedule) Minute() int        { return s.minute }

// StartOn anchors the planned start to a calendar day.
func (s Schedule) StartOn(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, s.hour, s.minute, 0, 0, day.Location())
}

func (s Schedule) String() string {
	if s.continuous {
		return Continuous
	}
	return fmt.Sprintf("%02d:%02d", s.hour, s.minute)
}
