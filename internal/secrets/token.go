package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups this tool's secrets in the OS keychain.
	KeyringService = "smartrecruiters-source"
)

var ErrNoToken = errors.New("API token not found (set it in keychain or via SRSOURCE_TOKEN)")

// ResolveToken prefers the keyring entry for account and falls back to
// envToken. An empty account with an empty envToken is not an error: public
// postings need no token.
func ResolveToken(account, envToken string) (string, error) {
	if strings.TrimSpace(account) != "" {
		tok, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(tok) != "" {
			return strings.TrimSpace(tok), nil
		}
		if strings.TrimSpace(envToken) == "" {
			return "", ErrNoToken
		}
	}
	return strings.TrimSpace(envToken), nil
}

func SetToken(account, token string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, account, token)
}

func DeleteToken(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

// AccountFor is the default keyring account for a company.
func AccountFor(company string) string {
	return "smartrecruiters:" + strings.TrimSpace(company)
}
