// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/godfather/lib/atomicfile"
)

// Template is the setup file `godfather init` writes. It is a valid
// setup on its own: three players on the console transport.
const Template = `# Game setup. Edit before the first "godfather run".
name: Test Game

# IANA time zone for deadlines and the times in messages.
time_zone: UTC

# Daily cutoffs. Night actions are due at night_end, votes at day_end.
# An explicit zone may follow the time, e.g. "22:00 America/New_York".
night_end: "10:00"
day_end: "22:00"

players:
  - name: Alice
    address: alice@example.com
  - name: Bob
    address: bob@example.com
  - name: Eve
    address: eve@example.com

# One role per player: Villager, Cop, Doctor, Goon, Godfather.
roles: [Cop, Doctor, Goon]

# Seed for dealing roles.
seed: 123

tick_interval: 1m

forum:
  # console prints outgoing mail; mailbox keeps a local SQLite mailbox
  # that "godfather mail" writes to; mailgun sends real mail.
  transport: console
  # mailgun:
  #   sender: The Godfather
  #   address: godfather
  #   domain: mg.example.com
  #   public_cc: []
  #   private_cc: []
  #   api_key_file: /path/to/key   # or GODFATHER_MAILGUN_API_KEY

checkpoints:
  keep_last: 0       # 0 keeps every checkpoint
  max_age: 0s        # 0 keeps checkpoints forever
  compression: zstd  # none, zstd or lz4
  # recipients: [age1...]  # encrypt checkpoints (see godfather keygen)
`

// ErrExists is returned by WriteTemplate when a setup file is already
// present.
var ErrExists = errors.New("setup file already exists")

// WriteTemplate creates directory if needed and writes Template to
// setup.yaml. An existing setup file of any format is left untouched
// and ErrExists is returned with its path.
func WriteTemplate(directory string) (string, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", fmt.Errorf("creating game directory: %w", err)
	}
	if existing, err := Find(directory); err == nil {
		return existing, fmt.Errorf("%s: %w", existing, ErrExists)
	}
	path := filepath.Join(directory, YAMLName)
	if err := atomicfile.WriteFile(path, []byte(Template), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
