package backend

import (
	"strings"
	"testing"
)

func TestReadEvents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single events",
			input: "data: Hel\n\ndata: lo\n\ndata: [DONE]\n\n",
			want:  []string{"Hel", "lo", "[DONE]"},
		},
		{
			name:  "leading whitespace beyond framing is kept",
			input: "data:  world\n\ndata:x\n\n",
			want:  []string{" world", "x"},
		},
		{
			name:  "multi-line data joined",
			input: "data: line one\ndata: line two\n\n",
			want:  []string{"line one\nline two"},
		},
		{
			name:  "empty fragment still dispatched",
			input: "data: \n\ndata: a\n\n",
			want:  []string{"", "a"},
		},
		{
			name:  "comments and heartbeats skipped",
			input: ": keep-alive\n\nevent: heartbeat\ndata: ping\n\nevent: message\ndata: real\n\n",
			want:  []string{"real"},
		},
		{
			name:  "crlf line endings",
			input: "data: a\r\n\r\ndata: b\r\n\r\n",
			want:  []string{"a", "b"},
		},
		{
			name:  "incomplete trailing event discarded",
			input: "data: a\n\ndata: partial",
			want:  []string{"a"},
		},
		{
			name:  "id and retry ignored",
			input: "id: 7\nretry: 100\ndata: a\n\n",
			want:  []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			err := readEvents(strings.NewReader(tt.input), func(data string) bool {
				got = append(got, data)
				return true
			})
			if err != nil {
				t.Fatalf("readEvents() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("event %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReadEvents_StopsWhenEmitDeclines(t *testing.T) {
	count := 0
	err := readEvents(strings.NewReader("data: a\n\ndata: b\n\ndata: c\n\n"), func(string) bool {
		count++
		return count < 2
	})
	if err != nil {
		t.Fatalf("readEvents() error = %v", err)
	}
	if count != 2 {
		t.Errorf("emit called %d times, want 2", count)
	}
}

func TestReadEvents_LongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	var got string
	err := readEvents(strings.NewReader("data: "+long+"\n\n"), func(data string) bool {
		got = data
		return true
	})
	if err != nil {
		t.Fatalf("readEvents() error = %v", err)
	}
	if got != long {
		t.Errorf("long fragment truncated: got %d bytes", len(got))
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		ok     bool
		reason string
	}{
		{"ok", Status{Status: "ok"}, true, "ok"},
		{"error with message", Status{Status: "error", Message: "Invalid pair_index"}, false, "Invalid pair_index"},
		{"error field", Status{Error: "File not found"}, false, "File not found"},
		{"empty", Status{}, false, "unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.OK(); got != tt.ok {
				t.Errorf("OK() = %v, want %v", got, tt.ok)
			}
			if got := tt.status.Reason(); got != tt.reason {
				t.Errorf("Reason() = %q, want %q", got, tt.reason)
			}
		})
	}
}
