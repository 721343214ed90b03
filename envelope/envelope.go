package envelope

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// FallbackAddress is used when a message carries no From header.
const FallbackAddress = "unknown@example.com"

// fallbackDate is the instant "Sat, 3 Jan 1970 12:34:56 -0800", used when
// the Date header is missing or cannot be parsed.
var fallbackDate = time.Unix(246896, 0)

// The From header may hold a bare address or a display name with the
// address in angle brackets. Strip everything outside the brackets.
var addrStrip = regexp.MustCompile(`.*<|>.*`)

// Envelope holds the values synthesized for one mbox separator line. The
// fallback flags record whether the corresponding header was usable.
type Envelope struct {
	Address         string
	Date            time.Time
	AddressFallback bool
	DateFallback    bool
}

// Synthesize derives the envelope for a message from its From and Date
// headers. Both headers are optional and malformed values never fail;
// missing or unparsable fields take the fixed fallbacks.
func Synthesize(hdr mail.Header) Envelope {
	env := Envelope{}
	env.Address, env.AddressFallback = address(headerGet(hdr, "From"))
	env.Date, env.DateFallback = timestamp(headerGet(hdr, "Date"))
	return env
}

// Line renders the mbox separator, "From <address> <ctime>", with the
// timestamp in local time. No trailing newline.
func (e Envelope) Line() string {
	return fmt.Sprintf("From %s %s", e.Address, e.Date.Local().Format(time.ANSIC))
}

func address(from string) (string, bool) {
	from = strings.TrimSpace(from)
	if from == "" {
		return FallbackAddress, true
	}
	return addrStrip.ReplaceAllString(from, ""), false
}

func timestamp(date string) (time.Time, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return fallbackDate, true
	}
	if t, err := mail.ParseDate(date); err == nil {
		return t, false
	}
	// Archived mail is full of dates that are almost, but not quite,
	// RFC 5322. Give them one lenient pass before giving up.
	if t, err := dateparse.ParseAny(date); err == nil {
		return t, false
	}
	return fallbackDate, true
}

func headerGet(hdr mail.Header, key string) string {
	if hdr == nil {
		return ""
	}
	return hdr.Get(key)
}
