package model

import "time"

type Attachment struct {
	AttachmentID   uint64    `gorm:"column:attachment_id;primaryKey;autoIncrement"`
	OwnerType      string    `gorm:"column:owner_type;type:text;not null;index:idx_attachment_owner,priority:1"`
	OwnerID        uint64    `gorm:"column:owner_id;not null;index:idx_attachment_owner,priority:2"`
	DocumentTypeID uint64    `gorm:"column:document_type_id;not null"`
	DocumentNumber string    `gorm:"column:document_number;type:text;not null;default:''"`
	FileName       string    `gorm:"column:file_name;type:text;not null"`
	StoragePath    string    `gorm:"column:storage_path;type:text;not null"`
	URL            string    `gorm:"column:url;type:text;not null"`
	Status         string    `gorm:"column:status;type:text;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (Attachment) TableName() string {
	return "event_attachments"
}

type Image struct {
	ImageID     uint64    `gorm:"column:image_id;primaryKey;autoIncrement"`
	OwnerType   string    `gorm:"column:owner_type;type:text;not null;index:idx_image_owner,priority:1"`
	OwnerID     uint64    `gorm:"column:owner_id;not null;index:idx_image_owner,priority:2"`
	FileName    string    `gorm:"column:file_name;type:text;not null"`
	StoragePath string    `gorm:"column:storage_path;type:text;not null"`
	PictureURL  string    `gorm:"column:picture_url;type:text;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (Image) TableName() string {
	return "event_images"
}
