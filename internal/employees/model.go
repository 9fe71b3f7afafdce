// Package employees provides read access to clinic staff records. Employees
// are owned by the HR-side CRUD; the workflow core only reads them to match,
// validate and notify.
package employees

import (
	"time"

	"github.com/google/uuid"
)

// Availability is the HR-managed working state of an employee.
type Availability string

const (
	AvailabilityWorking    Availability = "working"
	AvailabilityNotWorking Availability = "not_working"
)

// Employee represents a clinic staff member.
type Employee struct {
	ID             uuid.UUID    `db:"id"`
	FullName       string       `db:"full_name"`
	Email          string       `db:"email"`
	Specialization string       `db:"specialization"`
	Availability   Availability `db:"availability"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

// IsWorking reports whether the employee can receive new work.
func (e *Employee) IsWorking() bool {
	return e.Availability == AvailabilityWorking
}
