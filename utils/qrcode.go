package utils

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

// ProofDeepLink builds the link a second device opens to upload proof for
// attemptID.
func ProofDeepLink(base string, attemptID uuid.UUID) string {
	sep := "?"
	if u, err := url.Parse(base); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return base + sep + "attempt=" + url.QueryEscape(attemptID.String())
}

// QRCodeBase64 renders content as a 256px PNG and returns it base64 encoded.
func QRCodeBase64(content string) (string, error) {
	pngBytes, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(pngBytes), nil
}
