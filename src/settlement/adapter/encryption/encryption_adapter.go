package encryption

import (
	"context"

	"github.com/MMN3003/payagent/src/Infrastructure/fhe"
	"github.com/MMN3003/payagent/src/settlement/domain"
)

var _ domain.Encryptor = (*EncryptionPort)(nil)

type FHEClient interface {
	Encrypt(ctx context.Context, amount string) (*fhe.EncryptResponse, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

// init encryption port
func NewEncryptionPort(client FHEClient) *EncryptionPort {
	return &EncryptionPort{client: client}
}

type EncryptionPort struct {
	client FHEClient
}

func (e *EncryptionPort) Encrypt(ctx context.Context, amount string) (string, error) {
	res, err := e.client.Encrypt(ctx, amount)
	if err != nil {
		return "", err
	}
	return res.Ciphertext, nil
}

func (e *EncryptionPort) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	return e.client.Decrypt(ctx, ciphertext)
}
