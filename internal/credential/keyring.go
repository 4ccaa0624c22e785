// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package credential keeps Bitbucket passwords in the system keyring so that
// repeated runs do not prompt.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// ServiceName identifies entries written by this tool.
const ServiceName = "sirseer-open"

// Store reads and writes passwords keyed by Bitbucket username.
type Store struct {
	ring keyring.Keyring
}

// Open returns a Store backed by the first available system keyring.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: ServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.sirseer/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("sirseer-open-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

// NewStore wraps an existing keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Key returns the keyring key for username.
func Key(username string) string {
	return "bitbucket:" + username
}

// Password returns the stored password for username.
// The boolean is false when nothing is stored.
func (s *Store) Password(username string) (string, bool, error) {
	item, err := s.ring.Get(Key(username))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting credential for %q: %w", username, err)
	}
	return string(item.Data), true, nil
}

// SetPassword stores password for username, replacing any previous entry.
func (s *Store) SetPassword(username, password string) error {
	err := s.ring.Set(keyring.Item{
		Key:   Key(username),
		Data:  []byte(password),
		Label: ServiceName + " (" + username + ")",
	})
	if err != nil {
		return fmt.Errorf("setting credential for %q: %w", username, err)
	}
	return nil
}

// Delete removes the stored password for username. Deleting a missing entry
// is not an error.
func (s *Store) Delete(username string) error {
	err := s.ring.Remove(Key(username))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential for %q: %w", username, err)
	}
	return nil
}
