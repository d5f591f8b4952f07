package otp_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/vaultkeeper/internal/otp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Example(t *testing.T) {
	t.Parallel()
	acc, err := otp.Parse("otpauth://totp/Example:alice?secret=JBSWY3DPEHPK3PXP&issuer=Example&digits=6&period=30")
	require.NoError(t, err)

	assert.Equal(t, otp.Account{
		Name:      "alice",
		Issuer:    "Example",
		Secret:    "JBSWY3DPEHPK3PXP",
		Type:      otp.TypeTOTP,
		Algorithm: otp.AlgorithmSHA1,
		Digits:    6,
		Period:    30,
	}, acc)
}

func TestParse_Variants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		uri  string
		want otp.Account
	}{
		{
			name: "defaults without label issuer",
			uri:  "otpauth://totp/bob@example.com?secret=jbswy3dpehpk3pxp&issuer=ACME",
			want: otp.Account{Name: "bob@example.com", Issuer: "ACME", Secret: "JBSWY3DPEHPK3PXP", Type: otp.TypeTOTP, Algorithm: otp.AlgorithmSHA1, Digits: 6, Period: 30},
		},
		{
			name: "label issuer wins over parameter",
			uri:  "otpauth://totp/ACME:bob?secret=JBSWY3DPEHPK3PXP&issuer=Other",
			want: otp.Account{Name: "bob", Issuer: "ACME", Secret: "JBSWY3DPEHPK3PXP", Type: otp.TypeTOTP, Algorithm: otp.AlgorithmSHA1, Digits: 6, Period: 30},
		},
		{
			name: "case insensitive type and escaped label",
			uri:  "otpauth://TOTP/Example%20Co%3A%20alice%40example.com?secret=JBSWY3DPEHPK3PXP&algorithm=sha256&digits=8&period=60",
			want: otp.Account{Name: "alice@example.com", Issuer: "Example Co", Secret: "JBSWY3DPEHPK3PXP", Type: otp.TypeTOTP, Algorithm: otp.AlgorithmSHA256, Digits: 8, Period: 60},
		},
		{
			name: "hotp counter",
			uri:  "otpauth://hotp/Svc:carol?secret=JBSWY3DPEHPK3PXP&algorithm=SHA512&counter=42",
			want: otp.Account{Name: "carol", Issuer: "Svc", Secret: "JBSWY3DPEHPK3PXP", Type: otp.TypeHOTP, Algorithm: otp.AlgorithmSHA512, Digits: 6, Period: 30, Counter: 42},
		},
		{
			name: "steam always five characters",
			uri:  "otpauth://steam/Steam:gamer?secret=JBSWY3DPEHPK3PXP&digits=8",
			want: otp.Account{Name: "gamer", Issuer: "Steam", Secret: "JBSWY3DPEHPK3PXP", Type: otp.TypeSteam, Algorithm: otp.AlgorithmSHA1, Digits: 5, Period: 30},
		},
		{
			name: "name keeps later colons",
			uri:  "otpauth://totp/Corp:team:dave?secret=JBSWY3DPEHPK3PXP",
			want: otp.Account{Name: "team:dave", Issuer: "Corp", Secret: "JBSWY3DPEHPK3PXP", Type: otp.TypeTOTP, Algorithm: otp.AlgorithmSHA1, Digits: 6, Period: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := otp.Parse(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Failures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		uri      string
		kind     otp.ParseErrorKind
		sentinel error
		cause    error
	}{
		{"missing secret", "otpauth://totp/Example:alice?issuer=Example", otp.MissingSecret, otp.ErrMissingSecret, nil},
		{"blank secret", "otpauth://totp/Example:alice?secret=%20%20", otp.MissingSecret, otp.ErrMissingSecret, nil},
		{"wrong scheme", "https://totp/Example:alice?secret=JBSWY3DPEHPK3PXP", otp.MalformedURI, otp.ErrMalformedURI, nil},
		{"not a uri", "::::", otp.MalformedURI, otp.ErrMalformedURI, nil},
		{"missing type", "otpauth:///alice?secret=JBSWY3DPEHPK3PXP", otp.MalformedURI, otp.ErrMalformedURI, nil},
		{"unknown type", "otpauth://yubikey/alice?secret=JBSWY3DPEHPK3PXP", otp.UnsupportedType, otp.ErrUnsupportedType, nil},
		{"empty name", "otpauth://totp/Example:?secret=JBSWY3DPEHPK3PXP", otp.MalformedURI, otp.ErrMalformedURI, nil},
		{"bad secret", "otpauth://totp/alice?secret=not*base32", otp.MalformedURI, otp.ErrMalformedURI, otp.ErrInvalidSecret},
		{"secret of impossible length", "otpauth://totp/alice?secret=JBSWY3DPEHPK3PXPA", otp.MalformedURI, otp.ErrMalformedURI, otp.ErrInvalidSecret},
		{"single character secret", "otpauth://totp/alice?secret=A", otp.MalformedURI, otp.ErrMalformedURI, otp.ErrInvalidSecret},
		{"secret with six trailing characters", "otpauth://totp/alice?secret=JBSWY3DPEHPK3PXPABCDEF", otp.MalformedURI, otp.ErrMalformedURI, otp.ErrInvalidSecret},
		{"bad algorithm", "otpauth://totp/alice?secret=JBSWY3DPEHPK3PXP&algorithm=MD5", otp.MalformedURI, otp.ErrMalformedURI, otp.ErrInvalidParameters},
		{"digits not numeric", "otpauth://totp/alice?secret=JBSWY3DPEHPK3PXP&digits=six", otp.MalformedURI, otp.ErrMalformedURI, otp.ErrInvalidParameters},
		{"digits out of policy", "otpauth://totp/alice?secret=JBSWY3DPEHPK3PXP&digits=4", otp.MalformedURI, otp.ErrMalformedURI, otp.ErrInvalidParameters},
		{"zero period", "otpauth://totp/alice?secret=JBSWY3DPEHPK3PXP&period=0", otp.MalformedURI, otp.ErrMalformedURI, otp.ErrInvalidParameters},
		{"bad counter", "otpauth://hotp/alice?secret=JBSWY3DPEHPK3PXP&counter=-1", otp.MalformedURI, otp.ErrMalformedURI, otp.ErrInvalidParameters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			acc, err := otp.Parse(tt.uri)
			require.Error(t, err)
			assert.Equal(t, otp.Account{}, acc, "no partially populated account")

			var pe *otp.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.kind, pe.Kind)
			assert.ErrorIs(t, err, tt.sentinel)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
		})
	}
}

func TestParseError_RedactsSecret(t *testing.T) {
	t.Parallel()
	_, err := otp.Parse("otpauth://totp/alice?secret=JBSWY3DPEHPK3PXP&digits=99")
	require.Error(t, err)

	var pe *otp.ParseError
	require.True(t, errors.As(err, &pe))
	assert.NotContains(t, pe.URI, "JBSWY3DPEHPK3PXP")
	assert.Contains(t, pe.URI, "secret=REDACTED")
	assert.NotContains(t, err.Error(), "JBSWY3DPEHPK3PXP")
}

func TestParseBatch_ContinuesPastFailures(t *testing.T) {
	t.Parallel()
	input := []string{
		"otpauth://totp/A:one?secret=JBSWY3DPEHPK3PXP",
		"otpauth://totp/B:two?issuer=B",
		"",
		"   ",
		"otpauth://hotp/C:three?secret=JBSWY3DPEHPK3PXP&counter=3",
		"otpauth://blizzard/D:four?secret=JBSWY3DPEHPK3PXP",
	}

	accounts, errs := otp.ParseBatch(input)

	require.Len(t, accounts, 2)
	assert.Equal(t, "one", accounts[0].Name)
	assert.Equal(t, "three", accounts[1].Name)

	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], otp.ErrMissingSecret)
	assert.Contains(t, errs[0].Error(), "entry 2")
	assert.ErrorIs(t, errs[1], otp.ErrUnsupportedType)
	assert.Contains(t, errs[1].Error(), "entry 6")
}

func TestAccountURI_RoundTrip(t *testing.T) {
	t.Parallel()
	accounts := []otp.Account{
		{Name: "alice@example.com", Issuer: "Example Co", Secret: "JBSWY3DPEHPK3PXP", Type: otp.TypeTOTP, Algorithm: otp.AlgorithmSHA256, Digits: 8, Period: 60},
		{Name: "bob", Secret: "JBSWY3DPEHPK3PXP", Type: otp.TypeTOTP, Algorithm: otp.AlgorithmSHA1, Digits: 6, Period: 30},
		{Name: "carol", Issuer: "Svc", Secret: "JBSWY3DPEHPK3PXP", Type: otp.TypeHOTP, Algorithm: otp.AlgorithmSHA1, Digits: 6, Period: 30, Counter: 17},
		{Name: "gamer", Issuer: "Steam", Secret: "JBSWY3DPEHPK3PXP", Type: otp.TypeSteam, Algorithm: otp.AlgorithmSHA1, Digits: 5, Period: 30},
	}

	for _, acc := range accounts {
		uri := acc.URI()
		got, err := otp.Parse(uri)
		require.NoError(t, err, uri)
		assert.Equal(t, acc, got, uri)
	}
}

func TestAccountURI_Format(t *testing.T) {
	t.Parallel()
	acc := otp.Account{Name: "alice", Issuer: "Example", Secret: "jbsw y3dp ehpk 3pxp", Type: otp.TypeTOTP, Algorithm: otp.AlgorithmSHA1, Digits: 6, Period: 30}

	assert.Equal(t,
		"otpauth://totp/Example:alice?algorithm=SHA1&digits=6&issuer=Example&period=30&secret=JBSWY3DPEHPK3PXP",
		acc.URI())
}

func TestAccountJSON_ClosedEnums(t *testing.T) {
	t.Parallel()
	acc := otp.Account{Name: "a", Secret: "JBSWY3DPEHPK3PXP", Type: otp.TypeHOTP, Algorithm: otp.AlgorithmSHA512, Digits: 6}

	b, err := json.Marshal(acc)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"HOTP"`)
	assert.Contains(t, string(b), `"algorithm":"SHA512"`)

	var back otp.Account
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, acc, back)

	bad := strings.Replace(string(b), `"HOTP"`, `"YUBI"`, 1)
	assert.ErrorIs(t, json.Unmarshal([]byte(bad), &back), otp.ErrUnsupportedType)

	bad = strings.Replace(string(b), `"SHA512"`, `"MD5"`, 1)
	assert.ErrorIs(t, json.Unmarshal([]byte(bad), &back), otp.ErrInvalidParameters)
}

func TestQRCode(t *testing.T) {
	t.Parallel()
	acc := otp.Account{Name: "alice", Issuer: "Example", Secret: "JBSWY3DPEHPK3PXP", Type: otp.TypeTOTP, Algorithm: otp.AlgorithmSHA1, Digits: 6, Period: 30}

	png, err := otp.QRCode(acc, 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	acc.Secret = ""
	_, err = otp.QRCode(acc, 128)
	assert.ErrorIs(t, err, otp.ErrInvalidSecret)
}
