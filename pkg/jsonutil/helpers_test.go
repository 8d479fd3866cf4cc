package jsonutil

import (
	"bytes"
	"testing"
)

func TestEncodeKeepsTemplates(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]string{"url": "https://example.com/{z}/{x}/{y}.png?a=1&b=2"}
	if err := Encode(&buf, v); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "{\n  \"url\": \"https://example.com/{z}/{x}/{y}.png?a=1&b=2\"\n}\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestEncodeUnsupported(t *testing.T) {
	if err := Encode(&bytes.Buffer{}, make(chan int)); err == nil {
		t.Error("expected error for channel value")
	}
}
