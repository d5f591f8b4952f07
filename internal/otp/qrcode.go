package otp

import (
	"errors"

	skipqrcode "github.com/skip2/go-qrcode"
)

// DefaultQRSize is the PNG edge length used when QRCode gets a non-positive size.
const DefaultQRSize = 256

// QRCode renders acc.URI() as a PNG image for scanning into another
// authenticator app.
func QRCode(acc Account, size int) ([]byte, error) {
	if err := acc.Validate(); err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultQRSize
	}

	png, err := skipqrcode.Encode(acc.URI(), skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrQRCode, err)
	}
	return png, nil
}
