package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// PNG renders the given text as a QR code image suitable for scanning at the
// event gate.
func PNG(text string) ([]byte, error) {
	png, err := qrcode.Encode(text, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
