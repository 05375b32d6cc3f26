package emailsvc

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core"
)

var (
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

// ResetSentMessages empties SentMessages.
func ResetSentMessages() {
	mu.Lock()
	SentMessages = make([]core.EmailMessage, 0)
	mu.Unlock()
}

func record(msg core.EmailMessage) {
	mu.Lock()
	SentMessages = append(SentMessages, msg)
	mu.Unlock()
}

type consoleService struct {
	from       mail.Address
	subjPrefix string
	out        *log.Logger // nil: record only
	wg         *sync.WaitGroup
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService prints the messages to the standard logger instead of sending them.
func NewConsoleService(conf *core.Config) core.EmailService {
	return &consoleService{
		from:       conf.DefaultFromEmail,
		subjPrefix: "[" + conf.AppName + "] ",
		out:        log.Default(),
		wg:         new(sync.WaitGroup),
	}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		svc.wg.Add(1)
		go func(msg *core.EmailMessage) {
			defer svc.wg.Done()
			svc.deliver(msg)
		}(msg)
	}
}

// Wait blocks until the messages being sent are out.
func (svc consoleService) Wait() {
	if svc.wg != nil {
		svc.wg.Wait()
	}
}

// deliver renders msg, then prints and records it. Messages without recipients or content are
// dropped.
func (svc consoleService) deliver(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		svc.printf("%+v", errors.Wrap(err, "rendering email"))
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}

	if svc.out != nil {
		var buf strings.Builder
		if err := writeMIME(&buf, svc.from, svc.subjPrefix+msg.Subject, *msg, time.Now()); err != nil {
			svc.printf("%+v", err)
			return
		}
		svc.out.Println(buf.String())
	}
	record(*msg)
}

func (svc consoleService) printf(format string, args ...interface{}) {
	if svc.out != nil {
		svc.out.Printf(format, args...)
	}
}

// writeMIME writes msg as a multipart message: text and html alternatives, wrapped in a mixed
// part when there are attachments.
func writeMIME(w io.Writer, from mail.Address, subject string, msg core.EmailMessage, date time.Time) error {
	headers := [][2]string{
		{"From", from.String()},
		{"To", joinAddresses(msg.To)},
		{"Cc", joinAddresses(msg.Cc)},
		{"Bcc", joinAddresses(msg.Bcc)},
		{"Subject", subject},
		{"Date", date.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
	}
	for _, h := range headers {
		if h[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %s\r\n", h[0], h[1]); err != nil {
			return errors.Wrap(err, "writing headers")
		}
	}

	var alt bytes.Buffer
	altW := multipart.NewWriter(&alt)
	bodies := []struct{ contentType, content string }{{"text/plain; charset=utf-8", msg.TextContent}}
	if msg.HTMLContent != "" {
		bodies = append(bodies, struct{ contentType, content string }{"text/html; charset=utf-8", msg.HTMLContent})
	}
	for _, b := range bodies {
		part, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {b.contentType}})
		if err != nil {
			return errors.Wrapf(err, "creating %s part", b.contentType)
		}
		fmt.Fprintf(part, "%s\r\n", b.content)
	}
	if err := altW.Close(); err != nil {
		return errors.Wrap(err, "closing alternative part")
	}
	altType := "multipart/alternative; boundary=" + altW.Boundary()

	if !msg.HasAttachments() {
		fmt.Fprintf(w, "Content-Type: %s\r\n\r\n", altType)
		_, err := w.Write(alt.Bytes())
		return errors.Wrap(err, "writing body")
	}

	mixed := multipart.NewWriter(w)
	fmt.Fprintf(w, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mixed.Boundary())
	part, err := mixed.CreatePart(textproto.MIMEHeader{"Content-Type": {altType}})
	if err != nil {
		return errors.Wrap(err, "creating alternative part")
	}
	if _, err = part.Write(alt.Bytes()); err != nil {
		return errors.Wrap(err, "writing body")
	}
	for _, at := range msg.Attachments {
		part, err = mixed.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {at.ContentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", at.Filename)},
		})
		if err != nil {
			return errors.Wrapf(err, "attaching %s", at.Filename)
		}
		fmt.Fprintf(part, "%s\r\n", at.Content.String())
	}
	return errors.Wrap(mixed.Close(), "closing mixed part")
}

func joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, a := range addrs {
		strs = append(strs, a.String())
	}
	return strings.Join(strs, ", ")
}

type consoleServiceMock struct {
	consoleService
}

// NewConsoleServiceMock records the messages in SentMessages synchronously, without output.
func NewConsoleServiceMock(conf *core.Config) core.EmailService {
	return &consoleServiceMock{
		consoleService: consoleService{
			from:       conf.DefaultFromEmail,
			subjPrefix: "[" + conf.AppName + "] ",
		},
	}
}

func (svc *consoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		svc.deliver(msg)
	}
}
