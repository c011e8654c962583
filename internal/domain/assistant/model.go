package assistant

import (
	"time"

	"github.com/google/uuid"
)

// Link grants an assistant account read-only visibility into one patient's
// medications. The assistant's role is derived by looking up their email
// here at sign-in, not stored as a first-class claim.
type Link struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	AssistantEmail string    `db:"assistant_email" json:"assistant_email"`
	AssistantName  string    `db:"assistant_name" json:"assistant_name"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
