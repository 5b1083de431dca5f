// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package forums opens the transport a forum.Config selects.
package forums

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/forum/console"
	"github.com/bureau-foundation/godfather/forum/mailbox"
	"github.com/bureau-foundation/godfather/forum/mailgun"
	"github.com/bureau-foundation/godfather/lib/clock"
)

// Options carries the process-level dependencies of a transport.
type Options struct {
	// GameDirectory resolves relative paths in the configuration.
	GameDirectory string
	// Console is where the console transport prints. Default:
	// standard output.
	Console io.Writer
	Clock   clock.Clock
	Logger  *slog.Logger
}

// Open returns the configured transport. The caller closes it.
func Open(config forum.Config, options Options) (forum.Forum, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("transport", config.Transport)

	switch config.Transport {
	case forum.Console:
		output := options.Console
		if output == nil {
			output = os.Stdout
		}
		return console.New(output, logger), nil
	case forum.Mailbox:
		return OpenMailbox(config, options)
	case forum.Mailgun:
		key, err := mailgun.LoadAPIKey(config.Mailgun)
		if err != nil {
			return nil, err
		}
		transport, err := mailgun.New(mailgun.Config{
			MailgunConfig: config.Mailgun,
			APIKey:        key,
			Logger:        logger,
		})
		if err != nil {
			key.Close()
			return nil, err
		}
		return transport, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", config.Transport)
	}
}

// OpenMailbox opens the mailbox a configuration names, whatever its
// transport, so `godfather mail` can write to it.
func OpenMailbox(config forum.Config, options Options) (*mailbox.Forum, error) {
	path := config.Mailbox.Path
	if path == "" {
		path = "mailbox.db"
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(options.GameDirectory, path)
	}
	return mailbox.Open(mailbox.Config{Path: path, Clock: options.Clock, Logger: options.Logger})
}
