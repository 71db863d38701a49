package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the logical meaning a contributor assigns to a raw CSV column.
type Role string

const (
	RolePlace  Role = "Place"
	RoleDate   Role = "Date"
	RolePeriod Role = "Period"
	RoleValue  Role = "Value"
	RoleName   Role = "Name"
	RoleIgnore Role = "Ignore"
)

// ValidRoles defines the allowed role tags for column mappings.
var ValidRoles = map[Role]bool{
	RolePlace:  true,
	RoleDate:   true,
	RolePeriod: true,
	RoleValue:  true,
	RoleName:   true,
	RoleIgnore: true,
}

// CompletionStatus reports, per required logical field, whether the field is
// satisfied either by a column mapping or by a non-empty additional field.
// The submit gate is AllSatisfied.
type CompletionStatus map[string]bool

// AllSatisfied reports whether every required field is covered.
func (s CompletionStatus) AllSatisfied() bool {
	for _, ok := range s {
		if !ok {
			return false
		}
	}
	return true
}

// Dataset is the provenance record describing a batch of observations.
// One row is inserted into the datasets table per successful submission.
type Dataset struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Title              string    `json:"title" binding:"required,min=1,max=255" gorm:"type:varchar(255);not null;unique"`
	License            string    `json:"license,omitempty" gorm:"type:varchar(255)"`
	OriginalURL        string    `json:"original_url,omitempty" gorm:"type:text"`
	PublishedDate      string    `json:"published_date,omitempty" gorm:"type:varchar(32)"`
	Owner              string    `json:"owner,omitempty" gorm:"type:varchar(255)"`
	DatasetDescription string    `json:"dataset_description,omitempty" gorm:"type:text"`
	GeographicLevel    string    `json:"geographic_level,omitempty" gorm:"type:varchar(255)"`
	CreatedAt          time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Observation is one (place, name, value, date, ...) fact destined for the
// observations table. A single input row can yield several observations, one
// per column mapped to Value.
type Observation struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	DatasetID   uuid.UUID `json:"dataset_id" gorm:"type:uuid;not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Value       float64   `json:"value" gorm:"not null"`
	PlaceUpload string    `json:"place_upload,omitempty" gorm:"column:place_upload;type:varchar(255)"`
	Date        string    `json:"date,omitempty" gorm:"type:varchar(32)"`
	Period      string    `json:"period,omitempty" gorm:"type:varchar(64)"`
	Region      string    `json:"region,omitempty" gorm:"type:varchar(255)"`
	Year        string    `json:"year,omitempty" gorm:"type:varchar(8)"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// UpdateDatasetRequest is the payload for the dataset-metadata draft endpoint.
type UpdateDatasetRequest struct {
	Title              string `json:"title" binding:"required,min=1,max=255"`
	License            string `json:"license,omitempty" binding:"max=255"`
	OriginalURL        string `json:"original_url,omitempty" binding:"omitempty,url"`
	PublishedDate      string `json:"published_date,omitempty" binding:"max=32"`
	Owner              string `json:"owner,omitempty" binding:"max=255"`
	DatasetDescription string `json:"dataset_description,omitempty" binding:"max=2000"`
	GeographicLevel    string `json:"geographic_level,omitempty" binding:"max=255"`
}
