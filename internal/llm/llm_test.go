package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestNewAdapter(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"openai with key", Config{Provider: "openai", APIKey: "sk-test"}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"groq with key", Config{Provider: "groq", APIKey: "gsk_test"}, false},
		{"groq without key", Config{Provider: "groq"}, true},
		{"unknown provider", Config{Provider: "anthropic", APIKey: "x"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := NewAdapter(tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Fatalf("NewAdapter() error = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && a == nil {
				t.Error("expected adapter")
			}
		})
	}
}

func TestBuildMergePrompt(t *testing.T) {
	tests := []struct {
		name        string
		req         MergeRequest
		contains    []string
		notContains []string
	}{
		{
			name: "single chunk",
			req: MergeRequest{
				Document:   "# Meeting Minutes",
				Transcript: "John will send the report.",
				ChunkIndex: 3,
			},
			contains:    []string{"CURRENT MINUTES:\n# Meeting Minutes", "(Chunk 3)", "John will send the report.", "Return ONLY"},
			notContains: []string{"STYLE REFERENCE", "AGENDA", "queued chunks"},
		},
		{
			name: "batch with style and agenda",
			req: MergeRequest{
				Style:      "## Decisions\n- terse bullets",
				Agenda:     "1. Budget\n2. Hiring",
				Document:   "doc",
				Transcript: "[Chunk 0]\na\n\n[Chunk 1]\nb",
				ChunkIndex: -1,
			},
			contains: []string{"STYLE REFERENCE", "terse bullets", "AGENDA:\n1. Budget", "(queued batch)", "[Chunk 0]\na", "queued chunks"},
		},
		{
			name: "whitespace-only style is ignored",
			req: MergeRequest{
				Style:      "  \n ",
				Document:   "doc",
				Transcript: "text",
			},
			notContains: []string{"STYLE REFERENCE"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildMergePrompt(tc.req)
			for _, s := range tc.contains {
				if !strings.Contains(got, s) {
					t.Errorf("prompt missing %q\n%s", s, got)
				}
			}
			for _, s := range tc.notContains {
				if strings.Contains(got, s) {
					t.Errorf("prompt should not contain %q", s)
				}
			}
		})
	}
}

func TestChunkLabel(t *testing.T) {
	if ChunkLabel(0) != "Chunk 0" {
		t.Errorf("ChunkLabel(0) = %q", ChunkLabel(0))
	}
	if ChunkLabel(-1) != "queued batch" {
		t.Errorf("ChunkLabel(-1) = %q", ChunkLabel(-1))
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o deadline reached" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"empty response", fmt.Errorf("openai chat completion: %w", ErrEmptyResponse), "empty response"},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), "API timeout"},
		{"net timeout", timeoutErr{}, "API timeout"},
		{"rate limit api error", &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, "rate limited"},
		{"rate limit request error", &openai.RequestError{HTTPStatusCode: 429, Err: errors.New("too many")}, "rate limited"},
		{"unauthorized", &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}, "authentication failed"},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "api.openai.com"}, "no internet connection"},
		{"dial failure", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, "no internet connection"},
		{"connection in message", errors.New("Connection reset by peer"), "no internet connection"},
		{"rate in message", errors.New("server says rate exceeded"), "rate limited"},
		{"timeout in message", errors.New("upstream timeout"), "API timeout"},
		{
			name: "other error truncated",
			err:  &openai.APIError{Message: strings.Repeat("x", 80)},
			want: "APIError: " + strings.Repeat("x", 50),
		},
		{"plain error", errors.New("boom"), "errorString: boom"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Errorf("Classify() = %q, want %q", got, tc.want)
			}
		})
	}
}
