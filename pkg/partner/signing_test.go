package partner

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignGoldenVector(t *testing.T) {
	// md5("myapp&abcde&1700000000&topsecret"): values joined in
	// key order app_id < random_str < time, secret appended.
	got := Sign("myapp", 1700000000, "abcde", "topsecret")
	require.Equal(t, "97cc47c0062519b2c171d9ca569615a9", got)
}

func TestSignIsLowercaseHex(t *testing.T) {
	got := Sign("app", 1, "zzzzz", "key")
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), got)
}

func TestSignVariesWithEachField(t *testing.T) {
	base := Sign("app", 1700000000, "abcde", "key")
	require.NotEqual(t, base, Sign("app2", 1700000000, "abcde", "key"))
	require.NotEqual(t, base, Sign("app", 1700000001, "abcde", "key"))
	require.NotEqual(t, base, Sign("app", 1700000000, "fghij", "key"))
	require.NotEqual(t, base, Sign("app", 1700000000, "abcde", "key2"))
}

func TestNonceShape(t *testing.T) {
	for i := 0; i < 20; i++ {
		nonce := Nonce()
		require.Regexp(t, regexp.MustCompile(`^[a-z]{5}$`), nonce)
	}
}
