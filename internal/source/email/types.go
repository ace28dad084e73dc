package email

import (
	"fmt"
	"strings"

	"github.com/nhle/mail-triage/internal/source"
)

// Preset holds the connection settings for one mail provider.
type Preset struct {
	Type    source.ProviderType
	Host    string
	Port    string
	Mailbox string

	// UseUID addresses messages by UID instead of sequence number.
	UseUID bool

	// LocalPartLogin logs in with the part of the account before "@".
	LocalPartLogin bool
}

// presets are the built-in provider settings, keyed by provider type.
var presets = map[source.ProviderType]Preset{
	source.ProviderGmail: {
		Type:    source.ProviderGmail,
		Host:    "imap.gmail.com",
		Port:    "993",
		Mailbox: "INBOX",
	},
	source.ProviderICloud: {
		Type:           source.ProviderICloud,
		Host:           "imap.mail.me.com",
		Port:           "993",
		Mailbox:        "Inbox",
		UseUID:         true,
		LocalPartLogin: true,
	},
}

// LookupPreset returns the preset for the named provider.
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[source.ProviderType(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return Preset{}, fmt.Errorf("unknown mail provider %q", name)
	}
	return p, nil
}

// LoginName returns the username to authenticate with for account.
func (p Preset) LoginName(account string) string {
	if !p.LocalPartLogin {
		return account
	}
	if i := strings.Index(account, "@"); i > 0 {
		return account[:i]
	}
	return account
}

// Addr returns host:port.
func (p Preset) Addr() string {
	return p.Host + ":" + p.Port
}
