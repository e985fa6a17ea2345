package models

import "time"

const (
	PrintJobPending = "pending"
	PrintJobPrinted = "printed"
	PrintJobFailed  = "failed"
)

// PrintJob records one dispatch of a rendered document so a failed
// print can be retried without touching the order.
type PrintJob struct {
	ID            string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID       uint         `gorm:"index;not null" json:"order_id"`
	Kind          DocumentKind `gorm:"type:varchar(30);not null" json:"kind"`
	Copies        int          `gorm:"not null;default:1" json:"copies"`
	// CopiesPrinted counts finished copies so a retry resumes there
	CopiesPrinted int          `gorm:"not null;default:0" json:"copies_printed"`
	Status        string       `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Attempts      int          `gorm:"not null;default:0" json:"attempts"`
	LastError     string       `gorm:"type:text" json:"last_error,omitempty"`
	Document      string       `gorm:"type:text;not null" json:"-"`
	PrintedAt     *time.Time   `json:"printed_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
