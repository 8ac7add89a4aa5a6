package types

// Media describes an uploaded file kept in object storage.
type Media struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}
