// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the studyrun client.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// CONVERSATION HANDLE
// =============================================================================

// ConversationID identifies a conversation on the backend.
// The zero value means "no conversation".
type ConversationID string

// IsZero reports whether the handle is absent.
func (id ConversationID) IsZero() bool {
	return id == ""
}

// String returns the handle as text.
func (id ConversationID) String() string {
	return string(id)
}

// MarshalJSON encodes numeric handles as JSON numbers, which is what the
// backend issues, and anything else as a string. The zero value encodes as null.
func (id ConversationID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if isDigits(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a number, a string or null.
func (id *ConversationID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("conversation id: %w", err)
		}
		*id = ConversationID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("conversation id: %w", err)
	}
	*id = ConversationID(n.String())
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// =============================================================================
// PREFERRED FORMAT
// =============================================================================

// Format is the user's preferred output format for generated content.
// The zero value is FormatAuto, which lets the backend pick.
type Format string

const (
	FormatAuto  Format = ""
	FormatVideo Format = "video"
	FormatAudio Format = "audio"
	FormatText  Format = "texto"
)

// Formats lists every selectable format in cycling order.
func Formats() []Format {
	return []Format{FormatAuto, FormatVideo, FormatAudio, FormatText}
}

// ParseFormat parses a user-supplied format name.
// "auto" and the empty string select FormatAuto; "text" is accepted for FormatText.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto", "automatic":
		return FormatAuto, nil
	case "video":
		return FormatVideo, nil
	case "audio":
		return FormatAudio, nil
	case "texto", "text":
		return FormatText, nil
	default:
		return FormatAuto, fmt.Errorf("unknown format %q (want auto, video, audio or text)", s)
	}
}

// IsAuto reports whether no explicit format was chosen.
func (f Format) IsAuto() bool {
	return f == FormatAuto
}

// String returns the display name of the format.
func (f Format) String() string {
	if f.IsAuto() {
		return "auto"
	}
	return string(f)
}

// Next returns the format that follows f in Formats, wrapping around.
func (f Format) Next() Format {
	all := Formats()
	for i, candidate := range all {
		if candidate == f {
			return all[(i+1)%len(all)]
		}
	}
	return FormatAuto
}

// MarshalJSON encodes FormatAuto as null so the backend applies its own default.
func (f Format) MarshalJSON() ([]byte, error) {
	if f.IsAuto() {
		return []byte("null"), nil
	}
	return json.Marshal(string(f))
}
