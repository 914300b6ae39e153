package models

import "time"

// Medication is a standing or PRN prescription for a child
type Medication struct {
	ID        string    `json:"id" db:"id"`
	ChildID   string    `json:"childId" db:"child_id"`
	Name      string    `json:"name" db:"name"`
	Dosage    string    `json:"dosage" db:"dosage"`
	Timing    string    `json:"timing" db:"timing"`
	IsPRN     bool      `json:"isPRN" db:"is_prn"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Appointment is a scheduled visit with a specialist
type Appointment struct {
	ID          string    `json:"id" db:"id"`
	ChildID     string    `json:"childId" db:"child_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	Datetime    time.Time `json:"datetime" db:"datetime"`
	Location    *string   `json:"location,omitempty" db:"location"`
	Specialist  *string   `json:"specialist,omitempty" db:"specialist"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Todo is a shared care task, optionally assigned and dated
type Todo struct {
	ID          string     `json:"id" db:"id"`
	ChildID     string     `json:"childId" db:"child_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	Priority    string     `json:"priority" db:"priority"` // 'low', 'medium', 'high'
	AssignedTo  *string    `json:"assignedTo,omitempty" db:"assigned_to"`
	DueDate     *time.Time `json:"dueDate,omitempty" db:"due_date"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// Note is a free-form care note, taggable and pinnable
type Note struct {
	ID        string    `json:"id" db:"id"`
	ChildID   string    `json:"childId" db:"child_id"`
	Title     *string   `json:"title,omitempty" db:"title"`
	Content   string    `json:"content" db:"content"`
	Type      string    `json:"type" db:"type"` // 'general', 'medical', 'school'
	Tags      []string  `json:"tags" db:"tags"`
	IsPinned  bool      `json:"isPinned" db:"is_pinned"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Question is something to ask a specialist at the next visit
type Question struct {
	ID         string     `json:"id" db:"id"`
	ChildID    string     `json:"childId" db:"child_id"`
	Question   string     `json:"question" db:"question"`
	Specialist *string    `json:"specialist,omitempty" db:"specialist"`
	Status     string     `json:"status" db:"status"` // 'pending', 'answered'
	Answer     *string    `json:"answer,omitempty" db:"answer"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty" db:"answered_at"`
	Tags       []string   `json:"tags" db:"tags"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// Reminder is a recurring or one-off care reminder
type Reminder struct {
	ID        string     `json:"id" db:"id"`
	ChildID   string     `json:"childId" db:"child_id"`
	Title     string     `json:"title" db:"title"`
	Notes     *string    `json:"notes,omitempty" db:"notes"`
	RemindAt  time.Time  `json:"remindAt" db:"remind_at"`
	Repeat    *string    `json:"repeat,omitempty" db:"repeat"` // 'daily', 'weekly', null
	Done      bool       `json:"done" db:"done"`
	DoneAt    *time.Time `json:"doneAt,omitempty" db:"done_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// CareContact is a doctor, clinic, pharmacy, or other care provider
type CareContact struct {
	ID        string    `json:"id" db:"id"`
	ChildID   string    `json:"childId" db:"child_id"`
	Name      string    `json:"name" db:"name"`
	Role      *string   `json:"role,omitempty" db:"role"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Email     *string   `json:"email,omitempty" db:"email"`
	Address   *string   `json:"address,omitempty" db:"address"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// MedicalData is a measurement or lab result tracked over time
type MedicalData struct {
	ID         string    `json:"id" db:"id"`
	ChildID    string    `json:"childId" db:"child_id"`
	Title      string    `json:"title" db:"title"`
	Category   string    `json:"category" db:"category"` // 'lab', 'vitals', 'growth'
	Value      string    `json:"value" db:"value"`
	Unit       *string   `json:"unit,omitempty" db:"unit"`
	RecordedAt time.Time `json:"recordedAt" db:"recorded_at"`
	Notes      *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// LinkableEntity is the reduced shape the link picker works with: any care
// record that can be referenced from a message
type LinkableEntity struct {
	ID      string  `json:"id"`
	Title   *string `json:"title,omitempty"`
	Name    *string `json:"name,omitempty"`
	Content *string `json:"content,omitempty"`
}
