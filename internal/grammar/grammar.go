// Package grammar loads the phrase list that constrains the fast engine.
package grammar

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"voxcmd/internal/textnorm"
)

// Unknown is the recognizer's out-of-grammar token
const Unknown = "[unk]"

// ErrEmpty is returned by Encode when no phrase survives cleaning. A grammar
// holding only the unknown token would make every transcript "[unk]".
var ErrEmpty = errors.New("grammar has no phrases")

// Load reads a JSON array of phrases
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar file: %w", err)
	}

	var phrases []string
	if err := json.Unmarshal(data, &phrases); err != nil {
		return nil, fmt.Errorf("failed to parse grammar file %s: %w", path, err)
	}

	return Clean(phrases), nil
}

// Clean normalizes phrases, drops empties and duplicates and keeps order
func Clean(phrases []string) []string {
	seen := make(map[string]bool, len(phrases))
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if strings.TrimSpace(p) == Unknown {
			continue
		}
		n := textnorm.Normalize(p)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Encode renders phrases in the recognizer's JSON grammar format, always
// ending with the unknown token.
func Encode(phrases []string) (string, error) {
	list := Clean(phrases)
	if len(list) == 0 {
		return "", ErrEmpty
	}
	list = append(list, Unknown)
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to encode grammar: %w", err)
	}
	return string(data), nil
}
