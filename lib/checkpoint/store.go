// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checkpoint

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/godfather/lib/atomicfile"
	"github.com/bureau-foundation/godfather/lib/clock"
	"github.com/bureau-foundation/godfather/lib/sealed"
	"github.com/bureau-foundation/godfather/lib/secret"
)

const (
	// DirectoryName is the checkpoint directory inside a game directory.
	DirectoryName = "checkpoints"
	// ManifestName is the manifest file inside the checkpoint directory.
	ManifestName = "manifest.jsonl"

	sealedExtension = ".age"
)

// Policy configures compression, sealing and retention.
type Policy struct {
	// KeepLast bounds how many checkpoints are kept. Zero keeps all.
	KeepLast int `yaml:"keep_last"`
	// MaxAge removes checkpoints older than this. Zero keeps all.
	MaxAge time.Duration `yaml:"max_age"`
	// Compression defaults to zstd.
	Compression Compression `yaml:"compression"`
	// Recipients are age public keys. When set, checkpoints are
	// encrypted and `godfather restore` needs a matching identity.
	Recipients []string `yaml:"recipients"`
}

// Validate checks the policy and fills in defaults.
func (p *Policy) Validate() error {
	compression, err := ParseCompression(string(p.Compression))
	if err != nil {
		return err
	}
	p.Compression = compression
	if p.KeepLast < 0 {
		return fmt.Errorf("keep_last must not be negative, got %d", p.KeepLast)
	}
	if p.MaxAge < 0 {
		return fmt.Errorf("max_age must not be negative, got %v", p.MaxAge)
	}
	for _, recipient := range p.Recipients {
		if err := sealed.ParsePublicKey(recipient); err != nil {
			return err
		}
	}
	return nil
}

// Entry is one line of the manifest.
type Entry struct {
	ID          string      `json:"id"`
	Sequence    int         `json:"sequence"`
	Name        string      `json:"name"`
	File        string      `json:"file"`
	Created     time.Time   `json:"created"`
	Size        int64       `json:"size"`
	Digest      string      `json:"digest"`
	Compression Compression `json:"compression"`
	Sealed      bool        `json:"sealed"`
}

// Store writes checkpoints for one game directory.
type Store struct {
	directory string
	policy    Policy
	clock     clock.Clock
	logger    *slog.Logger
}

// NewStore returns a store rooted at <gameDirectory>/checkpoints. The
// policy must already be validated. A nil logger discards output.
func NewStore(gameDirectory string, policy Policy, clk clock.Clock, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if policy.Compression == "" {
		policy.Compression = CompressionZstd
	}
	return &Store{
		directory: filepath.Join(gameDirectory, DirectoryName),
		policy:    policy,
		clock:     clk,
		logger:    logger,
	}
}

// Directory returns the checkpoint directory.
func (s *Store) Directory() string {
	return s.directory
}

var unsafeName = regexp.MustCompile(`[^a-z0-9-]+`)

// Write stores payload as a new checkpoint called name, records it in
// the manifest, and applies retention.
func (s *Store) Write(name string, payload []byte) (Entry, error) {
	if err := os.MkdirAll(s.directory, 0o755); err != nil {
		return Entry{}, fmt.Errorf("creating checkpoint directory: %w", err)
	}

	entries, err := s.List()
	if err != nil {
		return Entry{}, err
	}
	sequence := 1
	if len(entries) > 0 {
		sequence = entries[len(entries)-1].Sequence + 1
	}

	slug := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		return Entry{}, fmt.Errorf("invalid checkpoint name %q", name)
	}
	fileName := fmt.Sprintf("%04d-%s.ckpt%s", sequence, slug, s.policy.Compression.extension())
	if len(s.policy.Recipients) > 0 {
		fileName += sealedExtension
	}

	size, err := s.writeFile(filepath.Join(s.directory, fileName), payload)
	if err != nil {
		return Entry{}, fmt.Errorf("writing checkpoint %s: %w", fileName, err)
	}

	entry := Entry{
		ID:          uuid.NewString(),
		Sequence:    sequence,
		Name:        name,
		File:        fileName,
		Created:     s.clock.Now().UTC(),
		Size:        size,
		Digest:      Digest(payload),
		Compression: s.policy.Compression,
		Sealed:      len(s.policy.Recipients) > 0,
	}
	if err := s.appendManifest(entry); err != nil {
		return Entry{}, err
	}
	s.logger.Info("checkpoint written",
		"name", name,
		"file", fileName,
		"size", size,
		"sealed", entry.Sealed,
	)

	if err := s.Prune(); err != nil {
		return entry, fmt.Errorf("pruning checkpoints: %w", err)
	}
	return entry, nil
}

// writeFile streams payload through compression and sealing into an
// atomically created file and returns the file size.
func (s *Store) writeFile(path string, payload []byte) (int64, error) {
	file, err := atomicfile.Create(path, 0o600)
	if err != nil {
		return 0, err
	}
	defer file.Abort()

	var sink io.Writer = file
	var sealer io.WriteCloser
	if len(s.policy.Recipients) > 0 {
		sealer, err = sealed.Seal(file, s.policy.Recipients)
		if err != nil {
			return 0, err
		}
		sink = sealer
	}

	compressed, err := compressor(s.policy.Compression, sink)
	if err != nil {
		return 0, err
	}
	if _, err := compressed.Write(payload); err != nil {
		return 0, fmt.Errorf("compressing: %w", err)
	}
	if err := compressed.Close(); err != nil {
		return 0, fmt.Errorf("finishing compression: %w", err)
	}
	if sealer != nil {
		if err := sealer.Close(); err != nil {
			return 0, fmt.Errorf("finishing encryption: %w", err)
		}
	}

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}
	if err := file.Commit(); err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.directory, ManifestName)
}

func (s *Store) appendManifest(entry Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding manifest entry: %w", err)
	}
	manifest, err := os.OpenFile(s.manifestPath(), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("opening manifest: %w", err)
	}
	if _, err := manifest.Write(append(line, '\n')); err != nil {
		manifest.Close()
		return fmt.Errorf("appending to manifest: %w", err)
	}
	if err := manifest.Sync(); err != nil {
		manifest.Close()
		return fmt.Errorf("syncing manifest: %w", err)
	}
	return manifest.Close()
}

// List returns the manifest entries in sequence order. A missing
// manifest is an empty list.
func (s *Store) List() ([]Entry, error) {
	return ReadManifest(s.directory)
}

// ReadManifest reads the manifest in a checkpoint directory.
func ReadManifest(directory string) ([]Entry, error) {
	data, err := os.ReadFile(filepath.Join(directory, ManifestName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("manifest line %d: %w", lineNumber, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning manifest: %w", err)
	}
	slices.SortFunc(entries, func(a, b Entry) int { return a.Sequence - b.Sequence })
	return entries, nil
}

// Prune deletes checkpoints beyond the policy's count and age limits.
// The newest checkpoint is always kept.
func (s *Store) Prune() error {
	if s.policy.KeepLast == 0 && s.policy.MaxAge == 0 {
		return nil
	}
	entries, err := s.List()
	if err != nil {
		return err
	}
	if len(entries) <= 1 {
		return nil
	}

	now := s.clock.Now()
	var kept, removed []Entry
	for i, entry := range entries {
		newest := i == len(entries)-1
		tooMany := s.policy.KeepLast > 0 && len(entries)-i > s.policy.KeepLast
		tooOld := s.policy.MaxAge > 0 && now.Sub(entry.Created) > s.policy.MaxAge
		if !newest && (tooMany || tooOld) {
			removed = append(removed, entry)
		} else {
			kept = append(kept, entry)
		}
	}
	if len(removed) == 0 {
		return nil
	}

	var manifest bytes.Buffer
	for _, entry := range kept {
		line, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encoding manifest entry: %w", err)
		}
		manifest.Write(append(line, '\n'))
	}
	if err := atomicfile.WriteFile(s.manifestPath(), manifest.Bytes(), 0o644); err != nil {
		return fmt.Errorf("rewriting manifest: %w", err)
	}

	for _, entry := range removed {
		if err := os.Remove(filepath.Join(s.directory, entry.File)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", entry.File, err)
		}
		s.logger.Info("checkpoint pruned", "name", entry.Name, "file", entry.File, "created", entry.Created)
	}
	return nil
}

// Read decodes the checkpoint file at path. Its extensions select
// decryption and decompression; identity is required only for sealed
// files and is borrowed, not closed.
func Read(path string, identity *secret.Buffer) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	name := filepath.Base(path)
	var source io.Reader = file
	if strings.HasSuffix(name, sealedExtension) {
		if identity == nil {
			return nil, fmt.Errorf("%s is sealed; an age identity is required", name)
		}
		source, err = sealed.Open(file, identity)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		name = strings.TrimSuffix(name, sealedExtension)
	}

	compression := CompressionNone
	switch filepath.Ext(name) {
	case CompressionZstd.extension():
		compression = CompressionZstd
	case CompressionLZ4.extension():
		compression = CompressionLZ4
	}
	reader, release, err := decompressor(compression, source)
	if err != nil {
		return nil, err
	}
	defer release()

	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return payload, nil
}

// Verify reads the checkpoint file at path and, when the manifest in
// its directory has an entry for it, checks the payload digest.
func Verify(path string, identity *secret.Buffer) ([]byte, error) {
	payload, err := Read(path, identity)
	if err != nil {
		return nil, err
	}
	entries, err := ReadManifest(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.File != filepath.Base(path) {
			continue
		}
		if digest := Digest(payload); digest != entry.Digest {
			return nil, fmt.Errorf("%s digest %s does not match manifest %s", entry.File, digest, entry.Digest)
		}
	}
	return payload, nil
}
