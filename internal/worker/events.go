package worker

// FileJob is an uploaded file reference published to the file topic. The
// download link is time-limited (five minutes), so the job should be
// consumed promptly.
type FileJob struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mime_type"`
	DownloadLink string `json:"download_link"`

	CorrelationID string `json:"correlation_id,omitempty"`
}

// PageJob is one page image awaiting extraction submission. ID is shared by
// every page of the same file; Num is the 1-based page index. Size is the
// total page count, carried for logging only.
type PageJob struct {
	ID       string `json:"id"`
	Num      int    `json:"num"`
	Size     int    `json:"size"`
	Content  string `json:"content"` // base64-encoded image
	MimeType string `json:"mime_type"`

	CorrelationID string `json:"correlation_id,omitempty"`
}

// ResultRef points at one or more pending extraction requests. Attempt counts
// how many times the ref has been re-published while waiting; republishing
// resets the broker's own attempt counter, so the bound lives in the payload.
// RequestIDs carries a batch read off an event stream; RequestID a single
// submission.
type ResultRef struct {
	RequestID  string   `json:"request_id,omitempty"`
	RequestIDs []string `json:"request_ids,omitempty"`
	Attempt    int      `json:"attempt,omitempty"`

	CorrelationID string `json:"correlation_id,omitempty"`
}
