package web

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestFetchToolBlocksMetadataAddress(t *testing.T) {
	tool := NewFetchTool(nil, 0)
	params, _ := json.Marshal(map[string]string{"url": "http://169.254.169.254/latest/meta-data"})
	res, err := tool.Execute(context.Background(), "owner", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError() {
		t.Fatal("expected metadata address fetch to be blocked")
	}
}

func TestFetchToolRejectsBadScheme(t *testing.T) {
	tool := NewFetchTool(nil, 0)
	params, _ := json.Marshal(map[string]string{"url": "ftp://example.com/file"})
	res, err := tool.Execute(context.Background(), "owner", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError() {
		t.Fatal("expected non-http(s) scheme to be blocked")
	}
}

func TestExtractContentStripsHTMLTags(t *testing.T) {
	out := extractContent([]byte("<p>Hello&nbsp;<b>World</b></p>"), "text/html; charset=utf-8")
	if out != "Hello World" {
		t.Fatalf("got %q", out)
	}
}

func TestExtractContentPrettyPrintsJSON(t *testing.T) {
	out := extractContent([]byte(`{"a":1}`), "application/json")
	if out != "{\n  \"a\": 1\n}" {
		t.Fatalf("got %q", out)
	}
}

func TestExtractContentConvertsBrAndBlockCloseToNewlines(t *testing.T) {
	out := extractContent([]byte("<p>line one<br>line two</p><p>para two</p>"), "text/html")
	want := "line one\nline two\n\npara two"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestExtractContentDetectsHTMLByDoctypeWithoutContentType(t *testing.T) {
	out := extractContent([]byte("<!doctype html><p>hello</p>"), "")
	if out != "hello" {
		t.Fatalf("got %q", out)
	}
}

func TestExtractContentStripsScriptAndStyleBlocks(t *testing.T) {
	out := extractContent([]byte("<style>.a{color:red}</style><p>visible</p><script>alert(1)</script>"), "text/html")
	if out != "visible" {
		t.Fatalf("got %q", out)
	}
}

func TestTruncateCharsPrependsNotice(t *testing.T) {
	out := truncateChars("abcdef", 4)
	if !strings.HasPrefix(out, "... (truncated to 4 characters)") {
		t.Fatalf("expected a prepended truncation notice, got %q", out)
	}
	if !strings.HasSuffix(out, "abcd") {
		t.Fatalf("expected truncated content preserved, got %q", out)
	}
}

func TestTruncateCharsLeavesShortContentUntouched(t *testing.T) {
	if out := truncateChars("abc", 10); out != "abc" {
		t.Fatalf("got %q", out)
	}
}

type stubSearchProvider struct{}

func (stubSearchProvider) Search(context.Context, string, int) ([]SearchResult, error) {
	return []SearchResult{{Title: "t", URL: "u", Snippet: "s"}}, nil
}

func TestSearchToolReturnsResults(t *testing.T) {
	tool := NewSearchTool(stubSearchProvider{})
	params, _ := json.Marshal(map[string]string{"query": "golang"})
	res, err := tool.Execute(context.Background(), "owner", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError() {
		t.Fatalf("unexpected error result: %+v", res)
	}
}
