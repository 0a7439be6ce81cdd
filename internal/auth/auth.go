package auth

import (
	"context"
	"os"
	"sync"

	"github.com/udtalk/push-backend/internal/logging"
	"github.com/udtalk/push-backend/internal/secrets"
	"github.com/udtalk/push-backend/internal/utils/errors"
)

const secretName = "pushserver-api-key"

// KeyChecker is an auth abstraction layer interface
type KeyChecker interface {
	Check(ctx context.Context, providedKey string) error
}

// Client validates the shared API key. The key comes from the API_KEY env,
// falling back to Secret Manager (cached after the first read).
type Client struct {
	Secrets secrets.Manager
}

var (
	mu        sync.Mutex
	cachedKey string
)

//Check Validates the provided shared secret.
func (c Client) Check(ctx context.Context, providedKey string) error {
	expected, err := c.expectedKey(ctx)
	if err != nil {
		return err
	}

	if providedKey == "" || providedKey != expected {
		return &errors.AuthError{Msg: "Invalid API key"}
	}

	return nil
}

func (c Client) expectedKey(ctx context.Context) (string, error) {
	if key, exists := os.LookupEnv("API_KEY"); exists && key != "" {
		return key, nil
	}

	mu.Lock()
	defer mu.Unlock()

	if cachedKey != "" {
		return cachedKey, nil
	}

	logging.FromContext(ctx).Debugf("API_KEY not set, reading secret '%v'", secretName)

	bytes, err := c.Secrets.Get(secretName)
	if err != nil {
		return "", err
	}

	cachedKey = string(bytes)
	return cachedKey, nil
}

// MockClient accepts every key, for unit tests
type MockClient struct{}

//Check Validates the provided shared secret. NOOP.
func (c MockClient) Check(ctx context.Context, providedKey string) error {
	return nil
}
