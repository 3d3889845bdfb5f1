// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/studyrun/internal/config"
)

// LineReader reads one line of input per prompt.
type LineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// historyReader provides line editing and persistent history for the REPL.
type historyReader struct {
	line        *liner.State
	historyFile string
}

// newHistoryReader creates a liner-backed reader and loads saved history.
func newHistoryReader() *historyReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	r := &historyReader{
		line:        line,
		historyFile: filepath.Join(configDir, "repl_history"),
	}
	r.loadHistory()
	return r
}

func (r *historyReader) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = r.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads a line, adding non-empty input to the history.
func (r *historyReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// saveHistory persists history with owner-only permissions.
func (r *historyReader) saveHistory() {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = r.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (r *historyReader) Close() error {
	r.saveHistory()
	return r.line.Close()
}

// =============================================================================
// PIPED INPUT
// =============================================================================

// scanReader reads lines from a non-terminal reader without echoing prompts.
type scanReader struct {
	scanner *bufio.Scanner
}

func newScanReader(in io.Reader) *scanReader {
	return &scanReader{scanner: bufio.NewScanner(in)}
}

// Prompt returns the next line, or io.EOF when input ends.
func (r *scanReader) Prompt(string) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

// Close is a no-op.
func (r *scanReader) Close() error {
	return nil
}
