// Package qrcode renders share links as QR images so a folder link can be
// scanned straight from the chat.
package qrcode

import (
	qr "github.com/skip2/go-qrcode"
)

const imageSize = 512

// Generate returns a PNG QR code for the given URL.
func Generate(url string) ([]byte, error) {
	return qr.Encode(url, qr.Medium, imageSize)
}
