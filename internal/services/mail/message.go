package mail

import "time"

// Message is one fetched mail item, decoded down to its content parts.
type Message struct {
	ID      string
	UID     uint32
	Subject string
	Sender  string
	Date    time.Time
	HTML    string
	Text    string
}

// Content returns the best available body: HTML when present, otherwise
// the plain-text part.
func (m Message) Content() string {
	if m.HTML != "" {
		return m.HTML
	}
	return m.Text
}
