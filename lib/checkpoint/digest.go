// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checkpoint

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// digestKey separates checkpoint digests from any other BLAKE3 use.
var digestKey = [32]byte([]byte("godfather checkpoint payload v1\x00"))

// Digest returns the hex BLAKE3 keyed hash of an uncompressed payload.
func Digest(payload []byte) string {
	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		panic("checkpoint: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	return hex.EncodeToString(hasher.Sum(nil))
}
