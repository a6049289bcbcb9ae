package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const VerificationCodeTTL = 15 * time.Minute

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewVerificationCode returns a random 6 digit code, zero padded.
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// TwoFactorKey is a freshly generated TOTP secret with its provisioning URL.
type TwoFactorKey struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
}

func GenerateTwoFactor(accountName string) (*TwoFactorKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "Sikayetim",
		AccountName: accountName,
	})
	if err != nil {
		return nil, err
	}
	return &TwoFactorKey{Secret: key.Secret(), URL: key.URL()}, nil
}

func ValidateTwoFactor(code, secret string) bool {
	if code == "" || secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}
