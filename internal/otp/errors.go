package otp

import "errors"

var (
	ErrInvalidSecret     = errors.New("invalid otp secret")
	ErrInvalidParameters = errors.New("invalid otp parameters")
	ErrUnsupportedType   = errors.New("unsupported otp type")
	ErrMissingSecret     = errors.New("missing otp secret")
	ErrMalformedURI      = errors.New("malformed otpauth uri")
	ErrQRCode            = errors.New("failed to generate qr code")
)
