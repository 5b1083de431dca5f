// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package forum

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// Transport names.
const (
	Console = "console"
	Mailgun = "mailgun"
	Mailbox = "mailbox"
)

// Config selects and configures a transport. It is part of the setup
// file and of the persisted game state, so it never holds secrets.
type Config struct {
	// Transport is one of "console", "mailgun" or "mailbox".
	// Default: console
	Transport string `yaml:"transport" cbor:"transport"`

	Mailgun MailgunConfig `yaml:"mailgun,omitempty" cbor:"mailgun,omitempty"`
	Mailbox MailboxConfig `yaml:"mailbox,omitempty" cbor:"mailbox,omitempty"`
}

// MailgunConfig configures the Mailgun transport.
type MailgunConfig struct {
	// Sender is the display name on outgoing mail, for example
	// "The Godfather".
	Sender string `yaml:"sender" cbor:"sender"`
	// Address is the local part (or full address) players write to.
	Address string `yaml:"address" cbor:"address"`
	// Domain is the Mailgun sending domain.
	Domain string `yaml:"domain" cbor:"domain"`
	// PublicCC receives a copy of every broadcast.
	PublicCC []string `yaml:"public_cc,omitempty" cbor:"public_cc,omitempty"`
	// PrivateCC receives a copy of every message.
	PrivateCC []string `yaml:"private_cc,omitempty" cbor:"private_cc,omitempty"`
	// APIKeyFile holds the API key. When empty the key is read from
	// GODFATHER_MAILGUN_API_KEY.
	APIKeyFile string `yaml:"api_key_file,omitempty" cbor:"api_key_file,omitempty"`
	// BaseURL overrides the API endpoint.
	// Default: https://api.mailgun.net/v3
	BaseURL string `yaml:"base_url,omitempty" cbor:"base_url,omitempty"`
}

// MailboxConfig configures the local mailbox transport.
type MailboxConfig struct {
	// Path is the database file, relative to the game directory.
	// Default: mailbox.db
	Path string `yaml:"path,omitempty" cbor:"path,omitempty"`
}

// EmailAddress returns the full address players write to.
func (c MailgunConfig) EmailAddress() string {
	if strings.Contains(c.Address, "@") {
		return c.Address
	}
	return c.Address + "@" + c.Domain
}

// ApplyDefaults fills in unset fields.
func (c *Config) ApplyDefaults() {
	if c.Transport == "" {
		c.Transport = Console
	}
	if c.Transport == Mailbox && c.Mailbox.Path == "" {
		c.Mailbox.Path = "mailbox.db"
	}
	if c.Transport == Mailgun && c.Mailgun.BaseURL == "" {
		c.Mailgun.BaseURL = "https://api.mailgun.net/v3"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Transport {
	case Console, Mailbox:
		return nil
	case Mailgun:
		return c.Mailgun.validate()
	default:
		return fmt.Errorf("unknown transport %q (want %s, %s or %s)", c.Transport, Console, Mailgun, Mailbox)
	}
}

func (c MailgunConfig) validate() error {
	var errs []error
	if c.Domain == "" {
		errs = append(errs, errors.New("mailgun.domain is required"))
	}
	if c.Address == "" {
		errs = append(errs, errors.New("mailgun.address is required"))
	}
	if c.Sender == "" {
		errs = append(errs, errors.New("mailgun.sender is required"))
	}
	for _, address := range append(append([]string(nil), c.PublicCC...), c.PrivateCC...) {
		if _, err := mail.ParseAddress(address); err != nil {
			errs = append(errs, fmt.Errorf("cc address %q: %w", address, err))
		}
	}
	return errors.Join(errs...)
}
