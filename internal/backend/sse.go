package backend

import (
	"bufio"
	"io"
	"strings"
)

// maxLineSize bounds a single SSE line. Long code blocks arrive as one
// fragment, so the scanner default of 64KiB is raised.
const maxLineSize = 1 << 20

// readEvents parses a server-sent-events body and calls emit with the data of
// each dispatched message event, in arrival order. Events with a type other
// than "message" (heartbeats and the like) are skipped, as a browser's onmessage
// handler would. Multiple data lines of one event are
// joined with "\n". A single space after "data:" is part of the framing and is
// dropped; any further whitespace belongs to the fragment. emit returning false
// stops the reader. An incomplete event at end of input is discarded.
func readEvents(body io.Reader, emit func(data string) bool) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var dataLines []string
	var eventType string
	pending := false

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		// Empty line signals end of event
		if line == "" {
			if pending && (eventType == "" || eventType == "message") {
				if !emit(strings.Join(dataLines, "\n")) {
					return nil
				}
			}
			dataLines = dataLines[:0]
			eventType = ""
			pending = false
			continue
		}

		// Comment / keep-alive
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if !found {
			value = ""
		}
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			dataLines = append(dataLines, value)
			pending = true
		case "event":
			eventType = value
		}
		// id and retry carry nothing this client uses.
	}

	return scanner.Err()
}
