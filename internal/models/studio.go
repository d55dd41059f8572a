package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reference read models for the studio's transactional data. The insight
// service only reads these tables; bookings, attendance and billing are
// written by the portal application.

// Client is a studio member.
type Client struct {
	ID       string    `gorm:"primaryKey;size:36" json:"id"`
	Name     string    `gorm:"size:100" json:"name"`
	Email    string    `gorm:"uniqueIndex;size:255" json:"email"`
	Phone    string    `gorm:"size:30" json:"phone,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
	IsActive bool      `gorm:"default:true" json:"is_active"`
}

func (Client) TableName() string { return "clients" }

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Trainer is a studio coach.
type Trainer struct {
	ID       string    `gorm:"primaryKey;size:36" json:"id"`
	Name     string    `gorm:"size:100" json:"name"`
	Email    string    `gorm:"uniqueIndex;size:255" json:"email"`
	HiredAt  time.Time `json:"hired_at"`
	IsActive bool      `gorm:"default:true" json:"is_active"`
}

func (Trainer) TableName() string { return "trainers" }

func (t *Trainer) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// Class status values
const (
	ClassStatusScheduled = "scheduled"
	ClassStatusCompleted = "completed"
	ClassStatusCancelled = "cancelled"
)

// Class is a scheduled training session.
type Class struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:100" json:"name"`
	TrainerID   string    `gorm:"index;size:36" json:"trainer_id"`
	Status      string    `gorm:"index;size:20;default:scheduled" json:"status"`
	Price       float64   `gorm:"type:decimal(10,2);default:0" json:"price"`
	Location    string    `gorm:"size:100" json:"location,omitempty"`
	ScheduledAt time.Time `gorm:"index" json:"scheduled_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Class) TableName() string { return "classes" }

func (c *Class) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Enrollment links a client to a class.
type Enrollment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ClassID   string    `gorm:"index;size:36;not null" json:"class_id"`
	ClientID  string    `gorm:"index;size:36;not null" json:"client_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Enrollment) TableName() string { return "enrollments" }

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// AttendanceRecord marks whether an enrolled client showed up.
type AttendanceRecord struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	EnrollmentID string    `gorm:"index;size:36;not null" json:"enrollment_id"`
	ClassID      string    `gorm:"index;size:36;not null" json:"class_id"`
	ClientID     string    `gorm:"index;size:36;not null" json:"client_id"`
	Present      bool      `json:"present"`
	RecordedAt   time.Time `gorm:"index" json:"recorded_at"`
}

func (AttendanceRecord) TableName() string { return "attendance_records" }

func (a *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
