package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultPBKDF2Iterations is the work factor for newly hashed passwords.
	DefaultPBKDF2Iterations = 600000

	pbkdf2Method  = "pbkdf2:sha256"
	pbkdf2KeyLen  = sha256.Size
	saltLength    = 16
	saltAlphabet  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	bcryptPrefix  = "$2"
	maxIterations = 10_000_000
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// PBKDF2Hasher produces digests of the form
// "pbkdf2:sha256:<iterations>$<salt>$<hex>", the layout Werkzeug uses, so
// existing password hashes keep verifying. Verify also accepts bcrypt digests.
type PBKDF2Hasher struct {
	iterations int
}

var _ PasswordHasher = (*PBKDF2Hasher)(nil)

// NewPBKDF2Hasher creates a hasher; non-positive iterations use the default.
func NewPBKDF2Hasher(iterations int) *PBKDF2Hasher {
	if iterations <= 0 {
		iterations = DefaultPBKDF2Iterations
	}
	return &PBKDF2Hasher{iterations: iterations}
}

// Hash returns a salted digest of password.
func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	salt, err := randomSalt(saltLength)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	sum := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, pbkdf2KeyLen, sha256.New)
	return fmt.Sprintf("%s:%d$%s$%s", pbkdf2Method, h.iterations, salt, hex.EncodeToString(sum)), nil
}

// Verify reports whether password matches digest. A malformed digest never matches.
func (h *PBKDF2Hasher) Verify(password, digest string) bool {
	if strings.HasPrefix(digest, bcryptPrefix) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	}

	parts := strings.Split(digest, "$")
	if len(parts) != 3 {
		return false
	}
	method, salt, expectedHex := parts[0], parts[1], parts[2]

	iterStr, ok := strings.CutPrefix(method, pbkdf2Method+":")
	if !ok {
		return false
	}
	iterations, err := strconv.Atoi(iterStr)
	if err != nil || iterations <= 0 || iterations > maxIterations {
		return false
	}
	expected, err := hex.DecodeString(expectedHex)
	if err != nil || len(expected) == 0 {
		return false
	}

	sum := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(sum, expected) == 1
}

func randomSalt(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(saltAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(saltAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
