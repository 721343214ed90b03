package model

import "net/mail"

// Message is one mail message as checked out at the archive's message path.
// Raw holds the full text (headers and body) after invalid byte sequences
// have been dropped; Header is the parsed header block, empty when the
// block could not be parsed.
type Message struct {
	Header mail.Header
	Raw    []byte
}

// From returns the message's From header value, or "" if absent.
func (m *Message) From() string {
	if m.Header == nil {
		return ""
	}
	return m.Header.Get("From")
}

// Date returns the message's Date header value, or "" if absent.
func (m *Message) Date() string {
	if m.Header == nil {
		return ""
	}
	return m.Header.Get("Date")
}
