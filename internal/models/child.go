package models

import "time"

// Child is the patient a care team coordinates around
type Child struct {
	ID              string     `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	ParentID        string     `json:"parentId" db:"parent_id"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	Diagnosis       *string    `json:"diagnosis,omitempty" db:"diagnosis"`
	Allergies       *string    `json:"allergies,omitempty" db:"allergies"`
	BloodType       *string    `json:"bloodType,omitempty" db:"blood_type"`
	CurrentWeight   *float64   `json:"currentWeight,omitempty" db:"current_weight"`
	CurrentHeight   *float64   `json:"currentHeight,omitempty" db:"current_height"`
	HeadCirc        *float64   `json:"headCirc,omitempty" db:"head_circ"`
	NGTubePlacement *string    `json:"ngTubePlacement,omitempty" db:"ng_tube_placement"`
	KeyNotes        *string    `json:"keyNotes,omitempty" db:"key_notes"`
	InviteCode      string     `json:"inviteCode,omitempty" db:"invite_code"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// Collaboration roles. The parent who created the child record is always an
// implicit 'parent' collaborator.
const (
	RoleParent    = "parent"
	RoleClinician = "clinician"
	RoleFamily    = "family"
)

// ValidRole checks a role string against the known set
func ValidRole(role string) bool {
	return role == RoleParent || role == RoleClinician || role == RoleFamily
}

// Collaboration grants a user a role on a child's care team
type Collaboration struct {
	ID      string    `json:"id" db:"id"`
	UserID  string    `json:"userId" db:"user_id"`
	ChildID string    `json:"childId" db:"child_id"`
	Role    string    `json:"role" db:"role"`
	AddedAt time.Time `json:"addedAt" db:"added_at"`
}

// CollaboratorWithUser includes the collaborator's user information
type CollaboratorWithUser struct {
	ID      string       `json:"id"`
	ChildID string       `json:"childId"`
	Role    string       `json:"role"`
	User    UserResponse `json:"user"`
	AddedAt time.Time    `json:"addedAt"`
}

// ChildListItem is a child plus feed summary for the home screen
type ChildListItem struct {
	Child       Child  `json:"child"`
	Role        string `json:"role"`
	LastMessage *struct {
		Body      string `json:"body"`
		CreatedAt string `json:"createdAt"`
	} `json:"lastMessage,omitempty"`
}
