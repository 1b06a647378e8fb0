// Package mail fetches pending newsletter messages over IMAP. Sessions
// are short-lived: each fetch dials, searches, downloads, and logs out,
// so a flaky mailbox connection never pins the daemon.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	gomail "github.com/emersion/go-message/mail"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"quill/internal/logging"
	"quill/internal/services"
)

// Config captures the IMAP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Mailbox  string
	MarkSeen bool
}

// Source reads pending messages from the configured mailbox.
type Source struct {
	cfg    Config
	logger *slog.Logger
	dial   func(addr string) (*imapclient.Client, error)
}

// Option customizes the source.
type Option func(*Source)

// WithDialer overrides how IMAP connections are established (useful for
// tests).
func WithDialer(dial func(addr string) (*imapclient.Client, error)) Option {
	return func(s *Source) {
		if dial != nil {
			s.dial = dial
		}
	}
}

// NewSource constructs a mail source.
func NewSource(cfg Config, logger *slog.Logger, opts ...Option) *Source {
	source := &Source{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "mail"),
		dial: func(addr string) (*imapclient.Client, error) {
			return imapclient.DialTLS(addr, nil)
		},
	}
	for _, opt := range opts {
		opt(source)
	}
	return source
}

// FetchPending returns up to limit unseen messages the predicate does
// not recognize, along with the total number of unseen messages in the
// mailbox. Messages already recorded in the ledger are filtered out
// before download.
func (s *Source) FetchPending(ctx context.Context, limit int, seen func(context.Context, string) (bool, error)) ([]Message, int, error) {
	client, err := s.connect()
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = client.Logout().Wait()
		_ = client.Close()
	}()

	criteria := &imap.SearchCriteria{NotFlag: []imap.Flag{imap.FlagSeen}}
	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, 0, services.Wrap(services.ErrTransient, "mail", "search", "unseen search failed", err)
	}
	uids := searchData.AllUIDs()
	total := len(uids)
	if total == 0 {
		return nil, 0, nil
	}

	var messages []Message
	for _, uid := range uids {
		if ctx.Err() != nil {
			return messages, total, ctx.Err()
		}
		if limit > 0 && len(messages) >= limit {
			break
		}
		message, err := s.fetchOne(client, uid)
		if err != nil {
			s.logger.Warn("skipping undecodable message",
				logging.Int("uid", int(uid)),
				logging.Error(err))
			continue
		}
		if seen != nil {
			processed, err := seen(ctx, message.ID)
			if err != nil {
				return messages, total, err
			}
			if processed {
				continue
			}
		}
		messages = append(messages, message)
	}
	return messages, total, nil
}

// MarkProcessed flags the message as seen so later searches skip it.
func (s *Source) MarkProcessed(ctx context.Context, uid uint32) error {
	if !s.cfg.MarkSeen {
		return nil
	}
	client, err := s.connect()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Logout().Wait()
		_ = client.Close()
	}()

	uidSet := imap.UIDSetNum(imap.UID(uid))
	storeFlags := &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Flags:  []imap.Flag{imap.FlagSeen},
		Silent: true,
	}
	if err := client.Store(uidSet, storeFlags, nil).Close(); err != nil {
		return services.Wrap(services.ErrTransient, "mail", "store", "mark seen failed", err)
	}
	return nil
}

// HealthCheck verifies the mailbox can be selected.
func (s *Source) HealthCheck(ctx context.Context) error {
	client, err := s.connect()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Logout().Wait()
		_ = client.Close()
	}()
	return nil
}

func (s *Source) connect() (*imapclient.Client, error) {
	host := strings.TrimSpace(s.cfg.Host)
	if host == "" {
		return nil, services.Wrap(services.ErrConfiguration, "mail", "connect", "host required", nil)
	}
	port := s.cfg.Port
	if port == 0 {
		port = 993
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	client, err := s.dial(addr)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "mail", "connect", "dial "+addr, err)
	}
	if err := client.Login(s.cfg.Username, s.cfg.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, services.Wrap(services.ErrValidation, "mail", "connect", "login failed", err)
	}
	if err := s.selectMailbox(client); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// selectMailbox tries the configured name and its common provider
// variants; Gmail exposes labels both bare and under a parent folder.
func (s *Source) selectMailbox(client *imapclient.Client) error {
	var lastErr error
	for _, name := range mailboxVariants(s.cfg.Mailbox) {
		if _, err := client.Select(name, nil).Wait(); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return services.Wrap(services.ErrConfiguration, "mail", "select",
		fmt.Sprintf("no mailbox variant of %q selectable", s.cfg.Mailbox), lastErr)
}

func mailboxVariants(name string) []string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return []string{"INBOX"}
	}
	variants := []string{trimmed}
	if !strings.EqualFold(trimmed, "INBOX") {
		variants = append(variants,
			"INBOX/"+trimmed,
			"[Gmail]/"+trimmed,
			strings.ToUpper(trimmed),
			cases.Title(language.Und).String(strings.ToLower(trimmed)),
		)
	}
	seen := map[string]struct{}{}
	unique := variants[:0]
	for _, variant := range variants {
		if _, ok := seen[variant]; ok {
			continue
		}
		seen[variant] = struct{}{}
		unique = append(unique, variant)
	}
	return unique
}

func (s *Source) fetchOne(client *imapclient.Client, uid imap.UID) (Message, error) {
	var message Message
	bodySection := &imap.FetchItemBodySection{}
	fetchOptions := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}
	results, err := client.Fetch(imap.UIDSetNum(uid), fetchOptions).Collect()
	if err != nil {
		return message, services.Wrap(services.ErrTransient, "mail", "fetch", "fetch failed", err)
	}
	if len(results) == 0 {
		return message, services.Wrap(services.ErrNotFound, "mail", "fetch", "message disappeared", nil)
	}
	buffer := results[0]

	message.UID = uint32(buffer.UID)
	if envelope := buffer.Envelope; envelope != nil {
		message.Subject = envelope.Subject
		message.Date = envelope.Date
		message.ID = strings.Trim(envelope.MessageID, "<>")
		if len(envelope.From) > 0 {
			message.Sender = envelope.From[0].Addr()
		}
	}
	if message.ID == "" {
		message.ID = fmt.Sprintf("uid-%d", uid)
	}

	raw := buffer.FindBodySection(bodySection)
	if len(raw) == 0 {
		return message, services.Wrap(services.ErrValidation, "mail", "fetch", "empty body", nil)
	}
	if err := decodeBody(raw, &message); err != nil {
		return message, err
	}
	return message, nil
}

// decodeBody walks the MIME tree collecting the HTML and plain-text
// parts.
func decodeBody(raw []byte, message *Message) error {
	reader, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return services.Wrap(services.ErrValidation, "mail", "decode", "parse message", err)
	}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return services.Wrap(services.ErrValidation, "mail", "decode", "read part", err)
		}
		header, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := header.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch {
		case strings.EqualFold(contentType, "text/html") && message.HTML == "":
			message.HTML = string(body)
		case strings.EqualFold(contentType, "text/plain") && message.Text == "":
			message.Text = string(body)
		}
	}
	if message.HTML == "" && message.Text == "" {
		return services.Wrap(services.ErrValidation, "mail", "decode", "no text parts", nil)
	}
	return nil
}
