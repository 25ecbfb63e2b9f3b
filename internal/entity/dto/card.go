package dto

// CardUploadRequest carries a browser-rendered card as a data URL.
type CardUploadRequest struct {
	Image     string `json:"image" binding:"required"`
	Recipient string `json:"recipient"`
}

// CardUploadResponse points at the stored card image.
type CardUploadResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// VisitResponse acknowledges a recorded site visit.
type VisitResponse struct {
	Recorded bool `json:"recorded"`
}
