// Package slack renders and delivers chat notifications for job transitions
// and slash-command replies.
package slack

// Attachment colors
const (
	// ColorQueued is used for the submission acknowledgement
	ColorQueued = "#00BCF2"
	// ColorNeutral is used for intermediate status updates
	ColorNeutral = "#95A5A6"
	// ColorSuccess is used for completed jobs
	ColorSuccess = "#7CD197"
	// ColorFailure is used for failed jobs and command errors
	ColorFailure = "#F35A00"
)

// ResponseTypeInChannel makes a slash-command reply visible to the whole channel
const ResponseTypeInChannel = "in_channel"

// Message is an incoming-webhook payload
type Message struct {
	Channel     string       `json:"channel,omitempty"`
	Attachments []Attachment `json:"attachments"`
}

// CommandResponse is the synchronous reply to a slash command
type CommandResponse struct {
	ResponseType string       `json:"response_type,omitempty"`
	Attachments  []Attachment `json:"attachments,omitempty"`
}

// Attachment is a formatted message block
type Attachment struct {
	Color      string   `json:"color,omitempty"`
	Fallback   string   `json:"fallback,omitempty"`
	Text       string   `json:"text,omitempty"`
	MarkdownIn []string `json:"mrkdwn_in,omitempty"`
	Fields     []Field  `json:"fields,omitempty"`
}

// Field is a short titled value inside an attachment
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
