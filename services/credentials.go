package services

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"
	"unicode"

	"marketplace-service/models"
)

const (
	passwordAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"
	passwordLength   = 8
	sellerIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	sellerIDRandLen  = 4
)

// CredentialIssuer generates seller login identifiers. It does not check for
// collisions; the store's unique indexes do that and the caller retries.
type CredentialIssuer struct {
	now  func() time.Time
	rand io.Reader
}

func NewCredentialIssuer() *CredentialIssuer {
	return &CredentialIssuer{now: time.Now, rand: rand.Reader}
}

// NewCredentialIssuerWith lets tests pin the clock and the random source.
func NewCredentialIssuerWith(now func() time.Time, r io.Reader) *CredentialIssuer {
	return &CredentialIssuer{now: now, rand: r}
}

// Generate returns username SELL+initials+suffix, an 8 character password
// and sellerId DMT+suffix+4 random chars. The 6 digit suffix is the
// millisecond clock modulo one million.
func (ci *CredentialIssuer) Generate(businessName string) (models.IssuedCredentials, error) {
	suffix := fmt.Sprintf("%06d", ci.now().UnixMilli()%1_000_000)

	password, err := ci.randomString(passwordAlphabet, passwordLength)
	if err != nil {
		return models.IssuedCredentials{}, fmt.Errorf("generate password: %w", err)
	}
	tail, err := ci.randomString(sellerIDAlphabet, sellerIDRandLen)
	if err != nil {
		return models.IssuedCredentials{}, fmt.Errorf("generate seller id: %w", err)
	}

	return models.IssuedCredentials{
		Username: "SELL" + businessInitials(businessName) + suffix,
		Password: password,
		SellerID: "DMT" + suffix + tail,
	}, nil
}

func (ci *CredentialIssuer) randomString(alphabet string, n int) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(ci.rand, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}

// businessInitials takes the first three letters, upper-cased, padding with X.
func businessInitials(name string) string {
	var b strings.Builder
	for _, r := range name {
		if b.Len() == 3 {
			break
		}
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	for b.Len() < 3 {
		b.WriteByte('X')
	}
	return b.String()
}
