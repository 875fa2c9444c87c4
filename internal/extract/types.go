package extract

// Submission types as reported by the LMS.
const (
	TypeTextEntry      = "online_text_entry"
	TypeURL            = "online_url"
	TypeFileUpload     = "online_upload"
	TypeMediaRecording = "media_recording"
)

// Attachment is one uploaded file on a submission, as supplied by the LMS
// submission record. It is never mutated.
type Attachment struct {
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Submission carries the reviewable content of one student submission.
// Token is the LMS bearer token used to fetch attachment bodies.
type Submission struct {
	Type        string       `json:"type"`
	Body        string       `json:"body,omitempty"`
	URL         string       `json:"url,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Token       string       `json:"-"`
}
