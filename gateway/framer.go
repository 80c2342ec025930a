// Copyright 2026 The mcpgate Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import "strings"

// LineFramer reassembles newline-delimited messages out of an
// arbitrarily chunked byte stream. Chunk boundaries carry no meaning:
// a message is emitted only once its terminating line feed has
// arrived, regardless of how many reads it took to accumulate or how
// many messages a single read completed.
type LineFramer struct {
	buffer string
}

// Feed appends chunk to the accumulator and returns the messages the
// chunk completed, in arrival order. Completed lines are trimmed of
// surrounding whitespace (which also strips carriage returns from
// tools that emit CRLF), and lines that trim to nothing are dropped.
// The residue after the last line feed stays buffered for future
// chunks.
func (f *LineFramer) Feed(chunk string) []string {
	f.buffer += chunk
	if !strings.Contains(f.buffer, "\n") {
		return nil
	}
	segments := strings.Split(f.buffer, "\n")
	f.buffer = segments[len(segments)-1]
	var messages []string
	for _, segment := range segments[:len(segments)-1] {
		trimmed := strings.TrimSpace(segment)
		if trimmed != "" {
			messages = append(messages, trimmed)
		}
	}
	return messages
}

// Pending returns the buffered partial line. A non-empty value at
// stream end is an unterminated final line, which is never emitted as
// a message.
func (f *LineFramer) Pending() string {
	return f.buffer
}
