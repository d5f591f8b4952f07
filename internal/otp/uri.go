package otp

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const uriScheme = "otpauth"

// ParseErrorKind classifies why a provisioning URI was rejected.
type ParseErrorKind uint8

const (
	MalformedURI ParseErrorKind = iota + 1
	MissingSecret
	UnsupportedType
)

func (k ParseErrorKind) String() string {
	switch k {
	case MalformedURI:
		return "malformed uri"
	case MissingSecret:
		return "missing secret"
	case UnsupportedType:
		return "unsupported type"
	default:
		return "unknown"
	}
}

func (k ParseErrorKind) sentinel() error {
	switch k {
	case MissingSecret:
		return ErrMissingSecret
	case UnsupportedType:
		return ErrUnsupportedType
	default:
		return ErrMalformedURI
	}
}

// ParseError is the failure half of Parse. URI carries the input with the
// secret value redacted so the error can be shown or logged.
type ParseError struct {
	Kind ParseErrorKind
	URI  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "parse otpauth uri: " + e.Kind.String()
	}
	return fmt.Sprintf("parse otpauth uri: %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is matches the sentinel that corresponds to the error kind.
func (e *ParseError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func parseErr(kind ParseErrorKind, raw string, err error) *ParseError {
	return &ParseError{Kind: kind, URI: redactSecret(raw), Err: err}
}

// Parse decodes an otpauth:// provisioning URI. On success every field of the
// returned Account is populated; defaults are SHA1, 6 digits (5 for steam),
// period 30 and counter 0.
func Parse(raw string) (Account, error) {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return Account{}, parseErr(MalformedURI, raw, err)
	}
	if !strings.EqualFold(u.Scheme, uriScheme) {
		return Account{}, parseErr(MalformedURI, raw, fmt.Errorf("scheme %q is not %s", u.Scheme, uriScheme))
	}
	if u.Host == "" {
		return Account{}, parseErr(MalformedURI, raw, errors.New("missing type"))
	}

	typ, err := ParseType(u.Host)
	if err != nil {
		return Account{}, parseErr(UnsupportedType, raw, err)
	}

	q := u.Query()

	issuer, name := splitLabel(strings.TrimPrefix(u.Path, "/"))
	if name == "" {
		return Account{}, parseErr(MalformedURI, raw, errors.New("empty account name"))
	}
	if issuer == "" {
		issuer = strings.TrimSpace(q.Get("issuer"))
	}

	secret := NormalizeSecret(q.Get("secret"))
	if secret == "" {
		return Account{}, parseErr(MissingSecret, raw, nil)
	}
	if _, err := DecodeSecret(secret); err != nil {
		return Account{}, parseErr(MalformedURI, raw, err)
	}

	acc := Account{
		Name:      name,
		Issuer:    issuer,
		Secret:    secret,
		Type:      typ,
		Algorithm: AlgorithmSHA1,
		Digits:    DefaultDigits,
		Period:    DefaultPeriod,
	}

	if v := q.Get("algorithm"); v != "" {
		if acc.Algorithm, err = ParseAlgorithm(v); err != nil {
			return Account{}, parseErr(MalformedURI, raw, err)
		}
	}

	if typ == TypeSteam {
		acc.Digits = SteamDigits
	} else if v := q.Get("digits"); v != "" {
		if acc.Digits, err = parsePositive("digits", v); err != nil {
			return Account{}, parseErr(MalformedURI, raw, err)
		}
		if err := checkDigits(acc.Digits); err != nil {
			return Account{}, parseErr(MalformedURI, raw, err)
		}
	}

	if v := q.Get("period"); v != "" {
		if acc.Period, err = parsePositive("period", v); err != nil {
			return Account{}, parseErr(MalformedURI, raw, err)
		}
	}

	if typ == TypeHOTP {
		if v := q.Get("counter"); v != "" {
			if acc.Counter, err = strconv.ParseUint(v, 10, 64); err != nil {
				return Account{}, parseErr(MalformedURI, raw, fmt.Errorf("%w: counter %q", ErrInvalidParameters, v))
			}
		}
	}

	return acc, nil
}

// ParseBatch parses one URI per element, skipping blank ones. A bad URI does
// not stop the rest; its error is reported with its 1-based position.
func ParseBatch(uris []string) ([]Account, []error) {
	var (
		accounts []Account
		errs     []error
	)
	for i, raw := range uris {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		acc, err := Parse(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i+1, err))
			continue
		}
		accounts = append(accounts, acc)
	}
	return accounts, errs
}

// URI renders the account as a provisioning URI that Parse accepts.
func (a Account) URI() string {
	label := escapeLabel(a.Name)
	if a.Issuer != "" {
		label = escapeLabel(a.Issuer) + ":" + label
	}

	q := url.Values{}
	q.Set("secret", NormalizeSecret(a.Secret))
	if a.Issuer != "" {
		q.Set("issuer", a.Issuer)
	}
	q.Set("algorithm", a.Algorithm.String())
	q.Set("digits", strconv.Itoa(a.Digits))
	if a.Type == TypeHOTP {
		q.Set("counter", strconv.FormatUint(a.Counter, 10))
	} else {
		q.Set("period", strconv.Itoa(a.Period))
	}

	return fmt.Sprintf("%s://%s/%s?%s", uriScheme, strings.ToLower(a.Type.String()), label, q.Encode())
}

func splitLabel(label string) (issuer, name string) {
	before, after, found := strings.Cut(label, ":")
	if !found {
		return "", strings.TrimSpace(label)
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), ":", "%3A")
}

func parsePositive(field, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidParameters, field, v)
	}
	return n, nil
}

func redactSecret(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	q := u.Query()
	if !q.Has("secret") {
		return raw
	}
	q.Set("secret", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
