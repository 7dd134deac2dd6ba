// Package blob stores raw image data and hands back a public URL plus a
// reference that can later be used to delete the object.
package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"
)

// Object describes a stored blob.
type Object struct {
	URL string
	Ref string
}

// Store is implemented by every image backend.
type Store interface {
	Upload(ctx context.Context, data []byte, contentType string) (Object, error)
	Delete(ctx context.Context, ref string) error
}

var ErrInvalidDataURI = errors.New("invalid data URI")

// DecodeDataURI splits a base64 data URI ("data:image/png;base64,....") into
// its payload and media type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}
	meta, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("%w: payload must be base64", ErrInvalidDataURI)
	}
	contentType := "application/octet-stream"
	if meta != "" {
		mediaType, _, err := mime.ParseMediaType(meta)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
		contentType = mediaType
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return data, contentType, nil
}

// extension picks a file extension for contentType, falling back to ".bin".
func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
