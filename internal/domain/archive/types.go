package archive

import (
	"time"
)

// ArchiveType is the kind of records an archive holds
type ArchiveType string

const (
	TypeMessage ArchiveType = "message"
	TypeRun     ArchiveType = "run"
)

// IsValid returns true if the archive type is known
func (t ArchiveType) IsValid() bool {
	return t == TypeMessage || t == TypeRun
}

// String returns the string representation
func (t ArchiveType) String() string {
	return string(t)
}

// Period is the span of time an archive covers
type Period string

const (
	PeriodDaily   Period = "D"
	PeriodMonthly Period = "M"
)

// IsValid returns true if the period is known
func (p Period) IsValid() bool {
	return p == PeriodDaily || p == PeriodMonthly
}

// String returns the string representation
func (p Period) String() string {
	return string(p)
}

// End returns the exclusive end of a period starting at start
func (p Period) End(start time.Time) time.Time {
	if p == PeriodMonthly {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(0, 0, 1)
}

// dateLayout is the layout of the start date in archive filenames
func (p Period) dateLayout() string {
	if p == PeriodMonthly {
		return "200601"
	}
	return "20060102"
}

// IsPeriodStart returns true if t is a valid start for the period, i.e.
// midnight UTC on a day, or on the first of a month for monthly archives
func (p Period) IsPeriodStart(t time.Time) bool {
	t = t.UTC()
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return false
	}
	return p != PeriodMonthly || t.Day() == 1
}
