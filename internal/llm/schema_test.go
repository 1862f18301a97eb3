package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeClient struct {
	reply   string
	err     error
	lastReq Request
}

func (f *fakeClient) Invoke(_ context.Context, req Request) (string, error) {
	f.lastReq = req
	return f.reply, f.err
}

type verdict struct {
	Confirmed bool `json:"confirmed"`
}

func TestGenerateStructured_DecodesReply(t *testing.T) {
	fc := &fakeClient{reply: `{"confirmed": true}`}
	got, err := GenerateStructured[verdict](context.Background(), fc, Request{
		SystemPrompt: "Decide.",
		Temperature:  0.1,
	})
	if err != nil {
		t.Fatalf("GenerateStructured: %v", err)
	}
	if !got.Confirmed {
		t.Fatal("expected confirmed=true")
	}
	if !fc.lastReq.JSONResponse {
		t.Fatal("request should ask for a JSON response")
	}
	if !strings.Contains(fc.lastReq.SystemPrompt, "JSON Schema") ||
		!strings.Contains(fc.lastReq.SystemPrompt, "confirmed") {
		t.Fatalf("schema not embedded in system prompt: %q", fc.lastReq.SystemPrompt)
	}
	if !strings.HasPrefix(fc.lastReq.SystemPrompt, "Decide.") {
		t.Fatalf("original system prompt lost: %q", fc.lastReq.SystemPrompt)
	}
}

func TestGenerateStructured_StripsMarkdownFences(t *testing.T) {
	fc := &fakeClient{reply: "```json\n{\"confirmed\": false}\n```"}
	got, err := GenerateStructured[verdict](context.Background(), fc, Request{})
	if err != nil {
		t.Fatalf("GenerateStructured: %v", err)
	}
	if got.Confirmed {
		t.Fatal("expected confirmed=false")
	}
}

func TestGenerateStructured_BadJSON(t *testing.T) {
	fc := &fakeClient{reply: "sure, will do!"}
	_, err := GenerateStructured[verdict](context.Background(), fc, Request{})
	if !errors.Is(err, ErrSchemaDecode) {
		t.Fatalf("expected ErrSchemaDecode, got %v", err)
	}
}

func TestGenerateStructured_PropagatesClientError(t *testing.T) {
	wantErr := errors.New("boom")
	fc := &fakeClient{err: wantErr}
	_, err := GenerateStructured[verdict](context.Background(), fc, Request{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected client error, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                      `{"a":1}`,
		"```json\n{\"a\":1}\n```":      `{"a":1}`,
		"```\n{\"a\":1}\n```":          `{"a":1}`,
		"  \n```json\n{\"a\":1}\n``` ": `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripFences(in); got != want {
			t.Errorf("stripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
