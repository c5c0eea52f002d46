package session

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/salonmate/internal/client/repositories/kv"
	"github.com/dmitrijs2005/salonmate/internal/common"
	"github.com/dmitrijs2005/salonmate/internal/cryptox"
)

// LoadSealer returns a sealer keyed by secret and the salt stored in repo,
// creating and saving the salt on first use.
func LoadSealer(ctx context.Context, repo kv.Repository, secret string) (*cryptox.Sealer, error) {
	salt, err := repo.Get(ctx, common.SessionSaltStorageKey)
	if err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	if len(salt) != cryptox.SaltSize {
		salt = cryptox.NewSalt()
		if err := repo.Set(ctx, common.SessionSaltStorageKey, salt); err != nil {
			return nil, fmt.Errorf("save salt: %w", err)
		}
	}
	return cryptox.NewSealer([]byte(secret), salt)
}
