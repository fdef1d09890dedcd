package models

type AssignmentStatus string

const (
	StatusActive  AssignmentStatus = "active"
	StatusRevoked AssignmentStatus = "revoked"
)

// Assignment links one employee to one exception definition.
// At most one row per (exception_id, emp_code) may be active, see
// migrations/002_exception_assignments.sql.
type Assignment struct {
	ID           int64            `db:"id" json:"id"`
	ExceptionID  int64            `db:"exception_id" json:"exception_id"`
	EmpCode      string           `db:"emp_code" json:"emp_code"`
	Status       AssignmentStatus `db:"status" json:"status"`
	ValidFrom    *int64           `db:"valid_from" json:"valid_from"`
	ValidTo      *int64           `db:"valid_to" json:"valid_to"`
	AssignedAt   int64            `db:"assigned_at" json:"assigned_at"`
	AssignedBy   *string          `db:"assigned_by" json:"assigned_by"`
	RevokedAt    *int64           `db:"revoked_at" json:"revoked_at"`
	RevokedBy    *string          `db:"revoked_by" json:"revoked_by"`
	RevokeReason *string          `db:"revoke_reason" json:"revoke_reason"`
}

// Assignee is an assignment row joined to the employee display fields.
// Employee fields are nullable since the HR feed may lag behind.
type Assignee struct {
	Assignment
	FirstName      *string `db:"first_name" json:"first_name"`
	LastName       *string `db:"last_name" json:"last_name"`
	DepartmentName *string `db:"department_name" json:"department_name"`
}

type AssignResult struct {
	Inserted      int     `json:"inserted"`
	Reactivated   int     `json:"reactivated"`
	AssignmentIDs []int64 `json:"assignmentIds"`
}

type RevokeResult struct {
	Updated int64 `json:"updated"`
}
