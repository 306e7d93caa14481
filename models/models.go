package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = append((*j)[0:0], v...)
	}
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// School is the tenant every user, class and ledger belongs to.
type School struct {
	BaseModel
	Name    string `json:"name" gorm:"size:255;not null"`
	Code    string `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Address string `json:"address" gorm:"size:500"`
	Phone   string `json:"phone" gorm:"size:20"`
	Active  bool   `json:"active" gorm:"default:true"`
}

// User roles
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleTeacher    = "teacher"
	RoleStudent    = "student"
)

// User model
type User struct {
	BaseModel
	Username string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255;uniqueIndex"`
	Name     string `json:"name" gorm:"size:200"`
	Role     string `json:"role" gorm:"size:50;not null;default:'student'"` // superadmin, admin, teacher, student
	SchoolID uint   `json:"school_id" gorm:"index"`
	Status   string `json:"status" gorm:"size:50;not null;default:'active'"` // active, inactive, suspended

	School School `json:"school,omitempty" gorm:"foreignKey:SchoolID"`
}

// Class groups students of a single grade inside a school.
type Class struct {
	BaseModel
	SchoolID uint   `json:"school_id" gorm:"not null;index"`
	Name     string `json:"name" gorm:"size:100;not null"`
	Grade    string `json:"grade" gorm:"size:50;not null"`
}

// Student model
type Student struct {
	BaseModel
	SchoolID    uint   `json:"school_id" gorm:"not null;index"`
	UserID      *uint  `json:"user_id,omitempty" gorm:"index"`
	FirstName   string `json:"first_name" gorm:"size:100;not null"`
	LastName    string `json:"last_name" gorm:"size:100;not null"`
	ParentName  string `json:"parent_name" gorm:"size:200"`
	ParentCIN   string `json:"parent_cin" gorm:"size:50"`
	ParentPhone string `json:"parent_phone" gorm:"size:20"`
	ClassID     *uint  `json:"class_id,omitempty" gorm:"index"`
	Status      string `json:"status" gorm:"size:50;not null;default:'active'"`

	Class *Class `json:"class,omitempty" gorm:"foreignKey:ClassID"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Grade returns the grade of the assigned class, or "" when the student has none.
func (s Student) Grade() string {
	if s.Class == nil {
		return ""
	}
	return s.Class.Grade
}

// ExportRecord tracks ledger workbooks pushed to object storage
type ExportRecord struct {
	BaseModel
	SchoolID     uint   `json:"school_id" gorm:"not null;index"`
	AcademicYear string `json:"academic_year" gorm:"size:9;not null"`
	FileName     string `json:"file_name" gorm:"size:255;not null"`
	S3Key        string `json:"s3_key" gorm:"size:500"`
	RecordCount  int    `json:"record_count" gorm:"not null"`
	FileSize     int64  `json:"file_size" gorm:"not null"`
	Filters      JSON   `json:"filters" gorm:"type:json"`
	Status       string `json:"status" gorm:"size:50;not null;default:'pending'"` // pending, completed, failed
	Error        string `json:"error" gorm:"type:text"`
	RequestedBy  uint   `json:"requested_by"`
}
