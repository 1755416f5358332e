package mail

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
)

// DefaultServer is the IMAPS endpoint for Gmail.
const DefaultServer = "imap.gmail.com:993"

// IMAPMailbox reads unseen messages from INBOX over IMAPS. Each call opens
// and closes its own connection.
type IMAPMailbox struct {
	Addr     string
	Username string
	Password string
	Timeout  time.Duration
}

// Unseen logs in, fetches the body of every unseen message in INBOX (which
// marks it seen) and logs out.
func (m *IMAPMailbox) Unseen(ctx context.Context) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := m.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c, err := client.DialWithDialerTLS(&net.Dialer{Timeout: timeout}, m.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("mail: dial %s: %w", m.Addr, err)
	}
	c.Timeout = timeout
	defer c.Logout()

	if err := c.Login(m.Username, m.Password); err != nil {
		return nil, fmt.Errorf("mail: login: %w", err)
	}
	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("mail: select INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("mail: search: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	section := &imap.BodySectionName{}

	fetched := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, []imap.FetchItem{section.FetchItem()}, fetched)
	}()

	var msgs []Message
	for im := range fetched {
		body := im.GetBody(section)
		if body == nil {
			continue
		}
		msg, err := ParseMessage(body)
		if err != nil {
			log.Printf("mail: skipping message %d: %v", im.Uid, err)
			continue
		}
		msgs = append(msgs, msg)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("mail: fetch: %w", err)
	}
	return msgs, nil
}

// ParseMessage extracts the sender address and the text of every inline
// text part from an RFC 5322 message.
func ParseMessage(r io.Reader) (Message, error) {
	mr, err := gomail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return Message{}, fmt.Errorf("parse message: %w", err)
	}

	var msg Message
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].Address
	}

	var body strings.Builder
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return Message{}, fmt.Errorf("parse part: %w", err)
		}
		if p == nil {
			break
		}
		h, ok := p.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		if ct, _, _ := h.ContentType(); ct != "" && !strings.HasPrefix(ct, "text/") {
			continue
		}
		b, err := io.ReadAll(p.Body)
		if err != nil {
			return Message{}, fmt.Errorf("read part: %w", err)
		}
		if body.Len() > 0 {
			body.WriteByte('\n')
		}
		body.Write(b)
	}
	msg.Body = body.String()
	return msg, nil
}
