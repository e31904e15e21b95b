package mail

import (
	"bytes"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"
	"github.com/google/uuid"

	"gitlab.com/ucmsv2/accounts/pkg/sanitizex"
)

type Payload struct {
	To      string
	Subject string
	Body    string
}

func (p Payload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.To, validation.Required, is.EmailFormat),
		validation.Field(&p.Subject, validation.Required),
		validation.Field(&p.Body, validation.Required),
	)
}

// Message renders p as an RFC 822 message with a plain text UTF-8 body.
// Header values are flattened to a single line so they cannot inject headers.
func (p Payload) Message(from string, now time.Time) []byte {
	var b bytes.Buffer

	header := func(k, v string) {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	header("From", sanitizex.CleanSingleLine(from))
	header("To", sanitizex.CleanSingleLine(p.To))
	header("Subject", mime.QEncoding.Encode("utf-8", sanitizex.CleanSingleLine(p.Subject)))
	header("Date", now.UTC().Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(from)))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")

	body := strings.ReplaceAll(p.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\r\n")
	}

	return b.Bytes()
}

func domainOf(addr string) string {
	if at := strings.LastIndexByte(addr, '@'); at >= 0 && at < len(addr)-1 {
		return strings.Trim(addr[at+1:], "> ")
	}
	return "localhost"
}
