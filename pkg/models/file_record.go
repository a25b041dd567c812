package models

import (
	"gorm.io/gorm"
)

// FileRecord is the metadata row for one completed upload. The stored bytes
// live on disk under the configured storage root at Path.
type FileRecord struct {
	Base
	OriginalFilename string `gorm:"not null"`
	FileType         string `gorm:"not null"`
	Size             int64  `gorm:"not null"`
	Path             string `gorm:"not null;unique"`
}

func (r *FileRecord) BeforeCreate(tx *gorm.DB) error {
	if err := r.Base.BeforeCreate(tx); err != nil {
		return err
	}
	return r.validate()
}

func (r *FileRecord) validate() error {
	if r.OriginalFilename == "" {
		return Error{Message: "Original filename cannot be blank.", Validation: true}
	}

	if r.FileType == "" {
		return Error{Message: "File type cannot be blank.", Validation: true}
	}

	if r.Size < 0 {
		return Error{Message: "Size cannot be negative.", Validation: true}
	}

	if r.Path == "" {
		return Error{Message: "Path cannot be blank.", Validation: true}
	}

	return nil
}
