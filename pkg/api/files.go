package api

import "time"

type FileRecordResponse struct {
	UUID             string    `json:"uuid"`              // File record UUID
	OriginalFilename string    `json:"original_filename"` // Filename as supplied by the client
	FileType         string    `json:"file_type"`         // Content type of the stored file
	Size             int64     `json:"size"`              // Size of the stored file in bytes
	UploadedAt       time.Time `json:"uploaded_at"`       // Timestamp the upload finished
	File             string    `json:"file"`              // Download locator for the stored bytes
}

type FileRecordCollectionResponse struct {
	Data  []FileRecordResponse `json:"data"`  // List of file records
	Meta  ResponseMetadata     `json:"meta"`  // Metadata about the request
	Links Links                `json:"links"` // Links to other pages of results
}

func (r *FileRecordCollectionResponse) SetMetadata(meta ResponseMetadata, links Links) {
	r.Meta = meta
	r.Links = links
}
