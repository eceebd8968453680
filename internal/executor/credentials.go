package executor

import (
	"context"
	"fmt"
	"os"

	"trigger-trading-bot/internal/interfaces"
	"trigger-trading-bot/internal/types"
)

// EnvCredentialProvider resolves the TMS login from environment variables at
// execution time. Credentials never live on the order record.
type EnvCredentialProvider struct {
	usernameVar string
	passwordVar string
}

var _ interfaces.CredentialProvider = (*EnvCredentialProvider)(nil)

// NewEnvCredentialProvider reads TMS_USERNAME and TMS_PASSWORD
func NewEnvCredentialProvider() *EnvCredentialProvider {
	return &EnvCredentialProvider{
		usernameVar: "TMS_USERNAME",
		passwordVar: "TMS_PASSWORD",
	}
}

func (p *EnvCredentialProvider) Get(ctx context.Context, orderID string) (types.Credentials, error) {
	username := os.Getenv(p.usernameVar)
	password := os.Getenv(p.passwordVar)
	if username == "" || password == "" {
		return types.Credentials{}, fmt.Errorf("%s and %s must be set", p.usernameVar, p.passwordVar)
	}
	return types.Credentials{Username: username, Password: password}, nil
}

// StaticCredentialProvider returns fixed credentials, for tests
type StaticCredentialProvider struct {
	Creds types.Credentials
}

var _ interfaces.CredentialProvider = (*StaticCredentialProvider)(nil)

func (p *StaticCredentialProvider) Get(ctx context.Context, orderID string) (types.Credentials, error) {
	return p.Creds, nil
}
