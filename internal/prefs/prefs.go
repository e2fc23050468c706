// Copyright (c) 2025 Oleksandr Kolodkin. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package prefs persists the operator's last used serial port so the
// next run can reconnect to the same adapter, matched by hardware id
// when the device node changed.
package prefs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultFileName is the store location relative to the home directory.
const DefaultFileName = ".uss-detect.json"

type portEntry struct {
	HWID string `json:"hwid,omitempty"`
}

type document struct {
	LastPort string               `json:"last_port,omitempty"`
	Ports    map[string]portEntry `json:"ports,omitempty"`
}

// Store is a JSON-backed preference document. A missing or unreadable
// file yields an empty store; save failures are logged and swallowed,
// preferences are never worth failing a scan over.
type Store struct {
	path string
	doc  document
}

// DefaultPath returns the store path under the user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(home, DefaultFileName)
}

// Load reads the store at path, starting empty when the file does not
// exist or does not parse.
func Load(path string) *Store {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Debug("preference store unreadable", "path", path, "err", err)
		}
		return s
	}
	if err := json.Unmarshal(raw, &s.doc); err != nil {
		slog.Debug("preference store corrupt, starting empty", "path", path, "err", err)
		s.doc = document{}
	}
	return s
}

// Save writes the whole document back to disk.
func (s *Store) Save() {
	raw, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		slog.Debug("preference store not saved", "path", s.path, "err", err)
	}
}

// LastPort returns the most recently used device node, or "".
func (s *Store) LastPort() string {
	return s.doc.LastPort
}

// SetLastPort records the device node and saves.
func (s *Store) SetLastPort(port string) {
	s.doc.LastPort = port
	s.Save()
}

// HWID returns the stored hardware id for a device node, or "".
func (s *Store) HWID(port string) string {
	return s.doc.Ports[port].HWID
}

// SetHWID records a device node's hardware id and saves.
func (s *Store) SetHWID(port, hwid string) {
	if s.doc.Ports == nil {
		s.doc.Ports = make(map[string]portEntry)
	}
	s.doc.Ports[port] = portEntry{HWID: hwid}
	s.Save()
}

// FindPortByHWID returns the device node previously stored for hwid,
// or "".
func (s *Store) FindPortByHWID(hwid string) string {
	for port, entry := range s.doc.Ports {
		if entry.HWID == hwid {
			return port
		}
	}
	return ""
}
