// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "ab", 1},
		{"ab", "abc", 1},
		{"abc", "bac", 2},
		{"kitten", "sitting", 3},
		{"restore", "restroe", 2},
		{"mail", "mial", 2},
	}

	for _, test := range tests {
		t.Run(test.a+"->"+test.b, func(t *testing.T) {
			if got := levenshtein(test.a, test.b); got != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
			}
		})
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{{Name: "init"}, {Name: "run"}, {Name: "checkpoints"}}
	tests := []struct {
		input string
		want  string
	}{
		{"int", "init"},
		{"rnu", "run"},
		{"checkpont", "checkpoints"},
		{"completely-different", ""},
	}
	for _, test := range tests {
		if got := suggestCommand(test.input, commands); got != test.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("mail", pflag.ContinueOnError)
	flagSet.String("from", "", "")
	flagSet.String("subject", "", "")
	flagSet.BoolP("verbose", "v", false, "")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--form", "a@b"}, "--from"},
		{[]string{"--from", "a@b", "--subjet=x"}, "--subject"},
		{[]string{"-v", "--zzzzzzzz"}, ""},
		{[]string{"game", "--", "--form"}, ""},
	}
	for _, test := range tests {
		if got := suggestFlag(test.args, flagSet); got != test.want {
			t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
		}
	}
}
