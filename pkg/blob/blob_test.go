package blob

import (
	"errors"
	"testing"
)

func TestDecodeDataURI(t *testing.T) {
	data, contentType, err := DecodeDataURI("data:image/png;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected payload %q", data)
	}
	if contentType != "image/png" {
		t.Fatalf("unexpected content type %q", contentType)
	}
}

func TestDecodeDataURIDefaultsContentType(t *testing.T) {
	_, contentType, err := DecodeDataURI("data:;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if contentType != "application/octet-stream" {
		t.Fatalf("unexpected content type %q", contentType)
	}
}

func TestDecodeDataURIRejects(t *testing.T) {
	for _, uri := range []string{
		"",
		"https://example.com/a.png",
		"data:image/png;base64",
		"data:image/png,aGVsbG8=",
		"data:image/png;base64,***",
	} {
		if _, _, err := DecodeDataURI(uri); !errors.Is(err, ErrInvalidDataURI) {
			t.Fatalf("%q: expected ErrInvalidDataURI got %v", uri, err)
		}
	}
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"image/jpeg":               ".jpg",
		"image/png":                ".png",
		"image/webp":               ".webp",
		"application/x-unknown-zz": ".bin",
	}
	for contentType, want := range cases {
		if got := extension(contentType); got != want {
			t.Fatalf("%s: expected %s got %s", contentType, want, got)
		}
	}
}
