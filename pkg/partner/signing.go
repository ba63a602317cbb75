package partner

import (
	"crypto/md5"
	"encoding/hex"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

const nonceLength = 5

const nonceAlphabet = "abcdefghijklmnopqrstuvwxyz"

// Sign computes the request signature shared with the partner system.
//
// The three identity fields are ordered by key name ascending, their
// values joined with "&", the shared secret appended, and the result
// MD5-hashed to a 32-char lowercase hex string. The biz payload never
// participates in the signature.
func Sign(appID string, timestamp int64, nonce, secret string) string {
	fields := map[string]string{
		"app_id":     appID,
		"time":       strconv.FormatInt(timestamp, 10),
		"random_str": nonce,
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		values = append(values, fields[k])
	}
	values = append(values, secret)

	sum := md5.Sum([]byte(strings.Join(values, "&")))
	return hex.EncodeToString(sum[:])
}

// Nonce returns a short random lowercase string for the random_str field.
func Nonce() string {
	b := make([]byte, nonceLength)
	for i := range b {
		b[i] = nonceAlphabet[rand.Intn(len(nonceAlphabet))]
	}
	return string(b)
}
