package models

import (
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/vaultkeeper/internal/otp"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestPasswordEntry_Apply(t *testing.T) {
	e := PasswordEntry{ID: "1", Website: "a.com", Username: "u", Password: "p", Category: "work"}

	e.Apply(PasswordPatch{Password: strptr("new"), Category: strptr("")})

	require.Equal(t, "a.com", e.Website)
	require.Equal(t, "u", e.Username)
	require.Equal(t, "new", e.Password)
	require.Equal(t, "", e.Category)
	require.Equal(t, "1", e.ID)
}

func TestPasswordPatch_Empty(t *testing.T) {
	require.True(t, PasswordPatch{}.Empty())
	require.False(t, PasswordPatch{Username: strptr("x")}.Empty())
}

func TestPasswordEntry_Matches(t *testing.T) {
	e := PasswordEntry{Website: "GitHub.com", Username: "octocat", Password: "hunter2", Category: "Dev"}

	require.True(t, e.Matches("github"))
	require.True(t, e.Matches("OCTO"))
	require.True(t, e.Matches("dev"))
	require.True(t, e.Matches("  "))
	require.False(t, e.Matches("hunter"), "password must not be searchable")
	require.False(t, e.Matches("gitlab"))
}

func TestTwoFactorAccount_MatchesAndJSON(t *testing.T) {
	a := TwoFactorAccount{
		ID: "id-1",
		Account: otp.Account{
			Name: "alice", Issuer: "Example", Secret: "JBSWY3DPEHPK3PXP",
			Type: otp.TypeTOTP, Algorithm: otp.AlgorithmSHA1, Digits: 6, Period: 30,
		},
	}
	require.True(t, a.Matches("exam"))
	require.True(t, a.Matches("ALI"))
	require.False(t, a.Matches("bob"))

	b, err := json.Marshal(a)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(b, &flat))
	require.Equal(t, "id-1", flat["id"])
	require.Equal(t, "alice", flat["name"])
	require.Equal(t, "TOTP", flat["type"])
}

func TestKind_Valid(t *testing.T) {
	require.True(t, KindPasswords.Valid())
	require.True(t, KindTwoFactor.Valid())
	require.False(t, Kind("notes").Valid())
}

func TestTwoFactorAccount_Apply(t *testing.T) {
	a := TwoFactorAccount{
		ID: "id-1",
		Account: otp.Account{
			Name: "alice", Issuer: "Example", Secret: "JBSWY3DPEHPK3PXP",
			Type: otp.TypeTOTP, Algorithm: otp.AlgorithmSHA1, Digits: 6, Period: 30,
		},
	}

	hotp := otp.TypeHOTP
	digits := 8
	counter := uint64(7)
	a.Apply(TwoFactorPatch{Secret: strptr("gezd gnbv gy3t qojq"), Type: &hotp, Digits: &digits, Counter: &counter})

	require.Equal(t, "id-1", a.ID)
	require.Equal(t, "alice", a.Name)
	require.Equal(t, "GEZDGNBVGY3TQOJQ", a.Secret)
	require.Equal(t, otp.TypeHOTP, a.Type)
	require.Equal(t, otp.AlgorithmSHA1, a.Algorithm)
	require.Equal(t, 8, a.Digits)
	require.Equal(t, uint64(7), a.Counter)
	require.NoError(t, a.Validate())
}
