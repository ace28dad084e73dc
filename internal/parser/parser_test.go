package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-triage/internal/model"
)

// crlf joins lines with CRLF the way messages arrive over IMAP.
func crlf(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n"))
}

func TestParse_MultipartPrefersPlainText(t *testing.T) {
	raw := crlf(
		`From: "Billing Team" <billing@vendor.example>`,
		"To: me@example.com",
		"Subject: Invoice Due",
		"Date: Fri, 01 Mar 2024 09:30:00 +0000",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Please <b>pay</b></p>",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Please pay by Friday",
		"--b1--",
		"",
	)

	msg := Parse(raw)

	assert.Equal(t, "Invoice Due", msg.Subject)
	assert.Equal(t, "billing@vendor.example", msg.Sender)
	assert.Equal(t, "Billing Team", msg.SenderName)
	assert.Equal(t, "Please pay by Friday", msg.Body)
	require.False(t, msg.ReceivedAt.IsUnknown())
	assert.True(t, msg.ReceivedAt.Time.Equal(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)))
}

func TestParse_SkipsAttachments(t *testing.T) {
	raw := crlf(
		"From: a@example.com",
		"Subject: Report",
		`Content-Type: multipart/mixed; boundary="mix"`,
		"",
		"--mix",
		"Content-Type: text/plain",
		`Content-Disposition: attachment; filename="notes.txt"`,
		"",
		"attached notes",
		"--mix",
		"Content-Type: text/plain",
		"",
		"See attached.",
		"--mix--",
		"",
	)

	assert.Equal(t, "See attached.", Parse(raw).Body)
}

func TestParse_HTMLOnlyIsStripped(t *testing.T) {
	raw := crlf(
		"From: news@example.com",
		"Subject: Digest",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body><p>Hello   <b>World</b></p>",
		"\t<div>Line&nbsp;two &amp; more</div></body></html>",
	)

	body := Parse(raw).Body

	assert.Equal(t, "Hello World Line two & more", body)
	assert.NotRegexp(t, `<[^>]*>`, body)
	assert.NotRegexp(t, `\s\s`, body)
}

func TestParse_HTMLAlternativeWithoutPlainPart(t *testing.T) {
	raw := crlf(
		"Subject: Promo",
		`Content-Type: multipart/alternative; boundary="x"`,
		"",
		"--x",
		"Content-Type: text/html",
		"",
		"<h1>Sale</h1>\r\n\r\n<p>50%   off</p>",
		"--x--",
		"",
	)

	assert.Equal(t, "Sale 50% off", Parse(raw).Body)
}

func TestParse_PlainSinglePart(t *testing.T) {
	raw := crlf(
		"From: a@example.com",
		"Subject: Hi",
		"",
		"Just text.",
	)

	assert.Equal(t, "Just text.", strings.TrimSpace(Parse(raw).Body))
}

func TestParse_DateHandling(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		known bool
	}{
		{"missing", "", false},
		{"garbage", "Date: not a date at all", false},
		{"unix seconds", "Date: 1234567890", false},
		{"zero", "Date: 0", false},
		{"digits with comment", "Date: 1700000000 (epoch)", false},
		{"rfc5322", "Date: Mon, 2 Jan 2006 15:04:05 -0700", true},
		{"comment", "Date: Mon, 2 Jan 2006 15:04:05 +0000 (UTC)", true},
		{"iso", "Date: 2024-03-01 09:30:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := []string{"Subject: x"}
			if tt.date != "" {
				lines = append(lines, tt.date)
			}
			lines = append(lines, "", "body")

			got := Parse(crlf(lines...)).ReceivedAt
			assert.Equal(t, tt.known, !got.IsUnknown())
			if !tt.known {
				assert.Equal(t, model.UnknownReceivedAt(), got)
				assert.Equal(t, "Unknown Date", got.String())
			}
		})
	}
}

func TestParse_EncodedHeaders(t *testing.T) {
	raw := crlf(
		"From: =?UTF-8?Q?J=C3=BCrgen?= <j@example.de>",
		"Subject: =?ISO-8859-1?Q?Caf=E9_order?=",
		"",
		"ok",
	)

	msg := Parse(raw)
	assert.Equal(t, "Café order", msg.Subject)
	assert.Equal(t, "j@example.de", msg.Sender)
	assert.Equal(t, "Jürgen", msg.SenderName)
}

func TestParse_Windows1252Body(t *testing.T) {
	raw := append(crlf(
		"Subject: Price",
		"Content-Type: text/plain; charset=windows-1252",
		"",
		"Total: 5",
	), 0x80)

	assert.Equal(t, "Total: 5€", Parse(raw).Body)
}

func TestParse_QuotedPrintableBody(t *testing.T) {
	raw := crlf(
		"Subject: QP",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"Gr=C3=BC=C3=9Fe",
	)

	assert.Equal(t, "Grüße", Parse(raw).Body)
}

func TestParse_MissingHeadersUsePlaceholders(t *testing.T) {
	msg := Parse(crlf("X-Other: 1", "", "body"))

	assert.Equal(t, model.NoSubject, msg.Subject)
	assert.Equal(t, model.UnknownSender, msg.Sender)
	assert.True(t, msg.ReceivedAt.IsUnknown())
}

func TestParse_UnparseableFromKeepsText(t *testing.T) {
	msg := Parse(crlf("From: undisclosed sender", "", "x"))
	assert.Equal(t, "undisclosed sender", msg.Sender)
}

func TestParse_GarbageNeverFails(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("\x00\x01\x02"),
		[]byte("no headers here at all"),
		[]byte("Subject: \xff\xfe\r\n\r\n\xff body"),
	}

	for _, raw := range inputs {
		assert.NotPanics(t, func() {
			msg := Parse(raw)
			assert.NotEmpty(t, msg.Subject)
			assert.NotEmpty(t, msg.Sender)
		})
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>a</p><p>b</p>", "a b"},
		{"a&lt;script&gt;b", "a b"},
		{"  \n\t spaced \n out  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripHTML(tt.in), tt.in)
	}
}
