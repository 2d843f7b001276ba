package config

const (
	// TopicFile is the NSQ topic for uploaded file references awaiting
	// download and page splitting.
	TopicFile = "listing.file"

	// TopicPage is the NSQ topic for page images awaiting extraction
	// submission.
	TopicPage = "listing.page"

	// TopicResult is the NSQ topic for pending extraction request ids.
	// Messages on this topic are re-published with a delay while the
	// external service is still working.
	TopicResult = "listing.result"
)
