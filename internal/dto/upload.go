package dto

type PresignRequest struct {
	UploadType  string `json:"upload_type" validate:"required,oneof=complaint_image company_logo avatar"`
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required"`
	FileSize    int64  `json:"file_size" validate:"required,min=1"`
}

type PresignResponse struct {
	PresignedURL string            `json:"presigned_url"`
	ObjectKey    string            `json:"object_key"`
	ExpiresIn    int               `json:"expires_in"`
	Method       string            `json:"method"`
	Headers      map[string]string `json:"headers"`
}

type ConfirmUploadRequest struct {
	ObjectKey string `json:"object_key" validate:"required"`
}

type ConfirmUploadResponse struct {
	Type      string `json:"type"`
	URL       string `json:"url"`
	ObjectKey string `json:"object_key"`
}
