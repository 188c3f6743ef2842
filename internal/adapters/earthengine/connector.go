package earthengine

import (
	"context"

	"github.com/samirrijal/earthimagery/internal/core/ports"
)

// NewConnector returns a ports.SessionConnector that loads the key file at
// credentialsFile and authenticates it with Connect.
func NewConnector(credentialsFile string, opts ...Option) ports.SessionConnector {
	return func(ctx context.Context) (ports.ImageryPlatform, error) {
		creds, err := LoadCredentials(credentialsFile)
		if err != nil {
			return nil, err
		}
		client, err := Connect(ctx, creds, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
