package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/mail-triage/internal/model"
	"github.com/nhle/mail-triage/internal/source"
)

const dialTimeout = 30 * time.Second

// Client implements source.Mailbox over IMAP with implicit TLS.
type Client struct {
	preset   Preset
	username string
	password string

	tlsConfig *tls.Config
	client    *imapclient.Client
}

var _ source.Mailbox = (*Client)(nil)

// NewClient creates an IMAP mailbox for the given preset and credentials.
// No network activity happens until Connect.
func NewClient(preset Preset, account, password string) *Client {
	return &Client{
		preset:    preset,
		username:  preset.LoginName(account),
		password:  password,
		tlsConfig: &tls.Config{ServerName: preset.Host},
	}
}

// NewFromConfig selects the provider preset named in cfg and applies any
// host, port or mailbox overrides.
func NewFromConfig(cfg model.MailConfig) (*Client, error) {
	preset, err := LookupPreset(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if cfg.Host != "" {
		preset.Host = cfg.Host
	}
	if cfg.Port != "" {
		preset.Port = cfg.Port
	}
	if cfg.Mailbox != "" {
		preset.Mailbox = cfg.Mailbox
	}
	return NewClient(preset, cfg.Account, cfg.Password), nil
}

// Provider returns the provider preset type.
func (c *Client) Provider() source.ProviderType {
	return c.preset.Type
}

// Connect dials the server over TLS, authenticates and selects the
// configured mailbox. The three failure stages are reported as distinct
// error types and never retried.
func (c *Client) Connect(ctx context.Context) error {
	if c.client != nil {
		return nil
	}

	addr := c.preset.Addr()
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: dialTimeout},
		Config:    c.tlsConfig,
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &source.ConnectionError{Provider: c.preset.Type, Addr: addr, Err: err}
	}

	client := imapclient.New(conn, nil)

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Close()
		var imapErr *imap.Error
		if errors.As(err, &imapErr) {
			return &source.AuthError{
				Provider: c.preset.Type,
				Message: fmt.Sprintf(
					"authentication failed for %s: %v",
					c.username, err,
				),
			}
		}
		return &source.ConnectionError{Provider: c.preset.Type, Addr: addr, Err: err}
	}

	if _, err := client.Select(c.preset.Mailbox, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		_ = client.Close()
		return &source.SelectError{Provider: c.preset.Type, Mailbox: c.preset.Mailbox, Err: err}
	}

	c.client = client
	return nil
}

// ListUnread searches the selected mailbox for messages without \Seen.
func (c *Client) ListUnread(_ context.Context) ([]source.MessageID, error) {
	if c.client == nil {
		return nil, source.ErrNotConnected
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}

	if c.preset.UseUID {
		data, err := c.client.UIDSearch(criteria, nil).Wait()
		if err != nil {
			return nil, fmt.Errorf("searching unseen messages: %w", err)
		}
		uids := data.AllUIDs()
		ids := make([]source.MessageID, 0, len(uids))
		for _, uid := range uids {
			ids = append(ids, source.MessageID(strconv.FormatUint(uint64(uid), 10)))
		}
		return ids, nil
	}

	data, err := c.client.Search(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching unseen messages: %w", err)
	}
	seqNums := data.AllSeqNums()
	ids := make([]source.MessageID, 0, len(seqNums))
	for _, n := range seqNums {
		ids = append(ids, source.MessageID(strconv.FormatUint(uint64(n), 10)))
	}
	return ids, nil
}

// Fetch retrieves the whole message with BODY.PEEK[] so that fetching
// does not change its \Seen flag.
func (c *Client) Fetch(_ context.Context, id source.MessageID) ([]byte, error) {
	if c.client == nil {
		return nil, &source.FetchError{ID: id, Err: source.ErrNotConnected}
	}

	numSet, err := c.numSet(id)
	if err != nil {
		return nil, &source.FetchError{ID: id, Err: err}
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	msgs, err := c.client.Fetch(numSet, fetchOpts).Collect()
	if err != nil {
		return nil, &source.FetchError{ID: id, Err: err}
	}
	if len(msgs) == 0 {
		return nil, &source.FetchError{ID: id, Err: errors.New("message not found")}
	}

	raw := msgs[0].FindBodySection(bodySection)
	if raw == nil {
		return nil, &source.FetchError{ID: id, Err: errors.New("server returned no body")}
	}

	return raw, nil
}

// MarkSeen adds the \Seen flag to a message.
func (c *Client) MarkSeen(_ context.Context, id source.MessageID) error {
	if c.client == nil {
		return source.ErrNotConnected
	}

	numSet, err := c.numSet(id)
	if err != nil {
		return err
	}

	storeCmd := c.client.Store(numSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)

	if err := storeCmd.Close(); err != nil {
		return fmt.Errorf("marking message %s seen: %w", id, err)
	}
	return nil
}

// Close logs out and closes the connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	client := c.client
	c.client = nil

	logoutErr := client.Logout().Wait()
	closeErr := client.Close()
	if logoutErr != nil {
		return fmt.Errorf("logging out: %w", logoutErr)
	}
	return closeErr
}

// numSet converts an identifier into the UID or sequence set the preset
// addresses messages by.
func (c *Client) numSet(id source.MessageID) (imap.NumSet, error) {
	n, err := parseNum(id)
	if err != nil {
		return nil, err
	}
	if c.preset.UseUID {
		return imap.UIDSetNum(imap.UID(n)), nil
	}
	return imap.SeqSetNum(n), nil
}

// parseNum converts a message identifier to its numeric form.
func parseNum(id source.MessageID) (uint32, error) {
	n, err := strconv.ParseUint(string(id), 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid message identifier %q", id)
	}
	return uint32(n), nil
}
