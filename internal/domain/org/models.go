package org

import "time"

type Employee struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	Team        string    `json:"team"`
	Designation string    `json:"designation"`
	Level       int       `json:"level"`
	ManagerID   string    `json:"managerId,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (e Employee) FullName() string {
	if e.FirstName == "" {
		return e.LastName
	}
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// Relationship classifies a nomination pair. The set is closed; there is
// no "unknown" value.
type Relationship string

const (
	RelationshipManager  Relationship = "manager"
	RelationshipReportee Relationship = "reportee"
	RelationshipPeer     Relationship = "peer"
	RelationshipInternal Relationship = "internal"
	RelationshipExternal Relationship = "external"
)

func (r Relationship) Valid() bool {
	switch r {
	case RelationshipManager, RelationshipReportee, RelationshipPeer, RelationshipInternal, RelationshipExternal:
		return true
	}
	return false
}

// Candidate identifies a prospective reviewer: either an employee on record
// or an external stakeholder known only by email.
type Candidate struct {
	EmployeeID    string `json:"employeeId,omitempty"`
	ExternalEmail string `json:"externalEmail,omitempty"`
}

func (c Candidate) External() bool {
	return c.EmployeeID == "" && c.ExternalEmail != ""
}
