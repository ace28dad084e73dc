// Package parser turns raw RFC 5322 messages into model.ParsedMessage
// values. Parsing never fails: undecodable pieces are replaced with
// placeholders so that a message can always be classified.
package parser

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"mime"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"

	"github.com/nhle/mail-triage/internal/model"
)

func init() {
	// Charsets commonly seen in mail that go-message does not register.
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// Parse extracts subject, sender, receipt date and a plain-text body from
// raw.
func Parse(raw []byte) model.ParsedMessage {
	parsed := model.ParsedMessage{
		Subject:    model.NoSubject,
		Sender:     model.UnknownSender,
		ReceivedAt: model.UnknownReceivedAt(),
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		// Not even a header block; treat the whole thing as text.
		parsed.Body = toValidUTF8(string(raw))
		return parsed
	}
	if mr == nil {
		parsed.Body = toValidUTF8(string(raw))
		return parsed
	}
	defer mr.Close()

	parsed.Subject = subject(mr.Header)
	parsed.Sender, parsed.SenderName = sender(mr.Header)
	parsed.ReceivedAt = receivedAt(mr.Header)
	parsed.Body = body(mr, raw)

	return parsed
}

// subject decodes the Subject header, falling back to the raw value when
// RFC 2047 decoding fails.
func subject(h mail.Header) string {
	s, err := h.Text("Subject")
	if err != nil {
		s = decodeWordsLenient(h.Get("Subject"))
	}
	s = strings.TrimSpace(toValidUTF8(s))
	if s == "" {
		return model.NoSubject
	}
	return s
}

// sender returns the first From address and its display name. When the
// header does not parse as an address list the decoded text is used.
func sender(h mail.Header) (addr, name string) {
	if list, err := h.AddressList("From"); err == nil && len(list) > 0 {
		return list[0].Address, list[0].Name
	}

	text, err := h.Text("From")
	if err != nil {
		text = decodeWordsLenient(h.Get("From"))
	}
	text = strings.TrimSpace(toValidUTF8(text))
	if text == "" {
		return model.UnknownSender, ""
	}
	return text, ""
}

// receivedAt parses the Date header strictly first, then permissively.
func receivedAt(h mail.Header) model.ReceivedAt {
	raw := strings.TrimSpace(h.Get("Date"))
	if raw == "" {
		return model.UnknownReceivedAt()
	}
	if t, err := h.Date(); err == nil && !t.IsZero() {
		return model.KnownAt(t)
	}
	if t, err := parseDateLenient(raw); err == nil {
		return model.KnownAt(t)
	}
	return model.UnknownReceivedAt()
}

// parseDateLenient handles dates that are not RFC 5322 compliant, such as
// a trailing "(UTC)" comment or an ISO layout. Bare digit strings are
// rejected rather than read as Unix timestamps.
func parseDateLenient(s string) (time.Time, error) {
	if i := strings.Index(s, "("); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	if allDigits(s) {
		return time.Time{}, fmt.Errorf("date %q has no calendar fields", s)
	}
	return dateparse.ParseAny(s)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// body selects the first inline text/plain part. Without one it falls
// back to stripped HTML and finally, for single-part messages, to the
// payload as-is.
func body(mr *mail.Reader, raw []byte) string {
	mediaType, _, _ := mr.Header.ContentType()
	multipart := strings.HasPrefix(mediaType, "multipart/")

	var htmlBody string
	var single string
	parts := 0

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			break
		}
		if part == nil {
			continue
		}
		parts++

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			// *mail.AttachmentHeader: never a body candidate.
			continue
		}

		data, readErr := io.ReadAll(part.Body)
		if readErr != nil && len(data) == 0 {
			continue
		}

		contentType, _, ctErr := h.ContentType()
		if ctErr != nil || contentType == "" {
			contentType = "text/plain"
		}

		switch contentType {
		case "text/plain":
			return toValidUTF8(string(data))
		case "text/html":
			if htmlBody == "" {
				htmlBody = string(data)
			}
		default:
			if !multipart {
				single = string(data)
			}
		}
	}

	switch {
	case htmlBody != "":
		return StripHTML(toValidUTF8(htmlBody))
	case single != "":
		return toValidUTF8(single)
	case parts == 0 && !multipart:
		return toValidUTF8(rawPayload(raw))
	}
	return ""
}

// StripHTML removes markup with a simple tag pattern, decodes entities and
// collapses every whitespace run to a single space. Tags are stripped
// again after decoding so escaped markup cannot reappear as a tag.
func StripHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = htmlTagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// rawPayload returns everything after the header block.
func rawPayload(raw []byte) string {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return string(raw[i+4:])
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return string(raw[i+2:])
	}
	return ""
}

// decodeWordsLenient decodes RFC 2047 encoded-words, keeping the input
// when it cannot be decoded.
func decodeWordsLenient(s string) string {
	dec := &mime.WordDecoder{CharsetReader: charset.Reader}
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}
