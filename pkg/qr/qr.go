// Package qr encodes verification links as PNG QR codes.
package qr

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const dataURIPrefix = "data:image/png;base64,"

// DefaultSize is the edge length in pixels of generated images.
const DefaultSize = 256

// ErrNotDataURI indicates a locator is not an inline PNG data URI.
var ErrNotDataURI = errors.New("not a png data uri")

// Generator produces QR images for a payload.
type Generator interface {
	PNG(content string) ([]byte, error)
	DataURI(content string) (string, error)
}

// Encoder is the Generator backed by go-qrcode.
type Encoder struct {
	Size  int
	Level qrcode.RecoveryLevel
}

// NewEncoder returns an Encoder using medium error correction.
func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Encoder{Size: size, Level: qrcode.Medium}
}

// PNG renders content as a PNG image.
func (e *Encoder) PNG(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("qr content must not be empty")
	}
	png, err := qrcode.Encode(content, e.Level, e.Size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// DataURI renders content as a base64 PNG data URI.
func (e *Encoder) DataURI(content string) (string, error) {
	png, err := e.PNG(content)
	if err != nil {
		return "", err
	}
	return EncodeDataURI(png), nil
}

// EncodeDataURI wraps PNG bytes in a data URI.
func EncodeDataURI(png []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png)
}

// DecodeDataURI extracts PNG bytes from a data URI produced by EncodeDataURI.
func DecodeDataURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return nil, ErrNotDataURI
	}
	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, dataURIPrefix))
	if err != nil {
		return nil, fmt.Errorf("decode qr data uri: %w", err)
	}
	return png, nil
}
