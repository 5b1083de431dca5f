// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"strings"
	"testing"
)

func TestDecodeResponse(t *testing.T) {
	var decoded struct {
		Items []string `json:"items"`
	}
	if err := DecodeResponse(strings.NewReader(`{"items":["a","b"]}`), &decoded); err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if len(decoded.Items) != 2 {
		t.Errorf("items = %v", decoded.Items)
	}
	if err := DecodeResponse(strings.NewReader(`not json`), &decoded); err == nil {
		t.Error("DecodeResponse accepted invalid JSON")
	}
}

func TestErrorBodyTruncates(t *testing.T) {
	body := ErrorBody(strings.NewReader("  " + strings.Repeat("x", 10000) + "  "))
	if len(body) != 4094 {
		t.Errorf("len(ErrorBody) = %d, want 4094 (4096 bytes read, leading spaces trimmed)", len(body))
	}
	if got := ErrorBody(strings.NewReader("Forbidden\n")); got != "Forbidden" {
		t.Errorf("ErrorBody = %q", got)
	}
}
