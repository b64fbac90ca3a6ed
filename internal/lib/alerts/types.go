package alerts

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruamjai/ruamjai/internal/lib/geo"
)

// Category classifies the kind of emergency an alert describes.
type Category string

const (
	CategoryMedical Category = "MEDICAL"
	CategoryPolice  Category = "POLICE"
	CategoryFire    Category = "FIRE"
	CategoryCar     Category = "CAR"
	CategoryGeneral Category = "GENERAL"
	CategoryCCTV    Category = "CCTV"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryMedical,
	CategoryPolice,
	CategoryFire,
	CategoryCar,
	CategoryGeneral,
	CategoryCCTV,
}

// Valid reports whether the category is a member of the closed enumeration.
func (c Category) Valid() bool {
	switch c {
	case CategoryMedical, CategoryPolice, CategoryFire, CategoryCar, CategoryGeneral, CategoryCCTV:
		return true
	}
	return false
}

// ParseCategory converts a raw string into a Category.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.Valid()
}

// Severity expresses how urgent an alert is. The ordering matters for
// display and sort tie-breaks, not for proximity filtering.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Valid reports whether the severity is a member of the closed enumeration.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rank returns the position of the severity in the LOW < MEDIUM < HIGH <
// CRITICAL ordering. Unknown severities rank below LOW.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// ParseSeverity converts a raw string into a Severity.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(s)
	return sev, sev.Valid()
}

// Status tracks the lifecycle of an alert. Transitions arrive from the
// external feed and are merged by id; this core never drives them.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusResolved Status = "RESOLVED"
)

// Valid reports whether the status is a member of the closed enumeration.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusResolved:
		return true
	}
	return false
}

// Alert is a reported emergency incident. Every field except Status is
// immutable after creation.
type Alert struct {
	ID            string    `json:"id"`
	Category      Category  `json:"category"`
	Severity      Severity  `json:"severity"`
	Description   string    `json:"description"`
	Position      geo.Point `json:"position"`
	CreatedAt     time.Time `json:"created_at"`
	ReporterLabel string    `json:"reporter_label"`
	Status        Status    `json:"status"`
}

// NewID mints a unique, stable alert id for locally authored reports.
func NewID() string {
	return uuid.NewString()
}
