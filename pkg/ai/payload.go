package ai

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrEmptyImage is returned for a blank image payload.
var ErrEmptyImage = errors.New("ai: image payload is empty")

// DecodeImagePayload decodes base64 image data, dropping an optional
// "data:<mime>;base64," prefix first.
func DecodeImagePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if idx := strings.Index(payload, ","); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	if payload == "" {
		return nil, ErrEmptyImage
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode image payload: %w", err)
		}
	}
	if len(raw) == 0 {
		return nil, ErrEmptyImage
	}
	return raw, nil
}

// DataURL renders data as a base64 data URL, sniffing the content type when
// none is given.
func DataURL(contentType string, data []byte) string {
	if contentType == "" {
		contentType = DetectContentType(data)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DetectContentType sniffs the MIME type of data without parameters.
func DetectContentType(data []byte) string {
	mt := mimetype.Detect(data).String()
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = mt[:idx]
	}
	return mt
}
