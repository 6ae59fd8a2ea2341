package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"path/filepath"
	"strings"
	"time"
)

const storedNameRandMax = 1_000_000_000

// StoredName builds "<field>-<unix millis>-<random in [0,1e9)><ext>" where ext comes
// from the client-supplied name. Only the extension of originalName is kept.
func StoredName(fieldName, originalName string, at time.Time) string {
	return fmt.Sprintf("%s-%d-%d%s", fieldName, at.UnixMilli(), randomSuffix(), SafeExt(originalName))
}

// SafeExt returns the extension of name when it is short and alphanumeric, else "".
func SafeExt(name string) string {
	ext := filepath.Ext(strings.TrimSpace(name))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, ch := range ext[1:] {
		if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')) {
			return ""
		}
	}
	return ext
}

func randomSuffix() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(storedNameRandMax))
	if err != nil {
		return mrand.Int64N(storedNameRandMax)
	}
	return n.Int64()
}
