package model

// Status is the lifecycle state shared by trackable entities, their reports and tasks.
type Status string

const (
	StatusDue                  Status = "due"
	StatusStarted              Status = "started"
	StatusAwaitingApproval     Status = "awaiting-approval"
	StatusNeedsMoreInformation Status = "needs-more-information"
	StatusApproved             Status = "approved"
)

// Entities (projects, sites, nurseries) are created in "started" and never hold "due".
var ValidEntityStatuses = []Status{
	StatusStarted,
	StatusAwaitingApproval,
	StatusNeedsMoreInformation,
	StatusApproved,
}

// Reports and tasks additionally start out as "due".
var ValidReportStatuses = []Status{
	StatusDue,
	StatusStarted,
	StatusAwaitingApproval,
	StatusNeedsMoreInformation,
	StatusApproved,
}

var statusLabels = map[Status]string{
	StatusDue:                  "Due",
	StatusStarted:              "Started",
	StatusAwaitingApproval:     "Awaiting approval",
	StatusNeedsMoreInformation: "Needs more information",
	StatusApproved:             "Approved",
}

func (s Status) String() string {
	return string(s)
}

// Label returns the human readable form shown in notifications.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsSubmitted reports whether the owner has handed the record in for review at least once.
func (s Status) IsSubmitted() bool {
	return s != StatusDue && s != StatusStarted
}

// IsTerminal is true only for approved records; needs-more-information sends the record back for rework.
func (s Status) IsTerminal() bool {
	return s == StatusApproved
}

// ValidStatusesFor returns the status truth set for the given entity type.
func ValidStatusesFor(t EntityType) []Status {
	if t.IsReport() || t == EntityTypeFinancialReport {
		return ValidReportStatuses
	}
	return ValidEntityStatuses
}

// IsValidFor reports whether s may be held by an entity of type t.
func (s Status) IsValidFor(t EntityType) bool {
	for _, v := range ValidStatusesFor(t) {
		if v == s {
			return true
		}
	}
	return false
}
