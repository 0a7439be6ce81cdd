package apns

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"sync"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/token"
	"github.com/udtalk/push-backend/internal/logging"
	"github.com/udtalk/push-backend/internal/utils"
)

//Sender Interface for APNs client.
type Sender interface {
	Push(ctx context.Context, production bool, n *apns2.Notification) (*apns2.Response, error)
}

// Connections are created lazily per gateway (production/sandbox) and kept for
// the process lifetime; Shutdown releases them.
var (
	mu      sync.Mutex
	config  *utils.APNSConfig
	authKey *ecdsa.PrivateKey
	clients = map[bool]*apns2.Client{}
)

//Client Real APNs client.
type Client struct{}

//Push Sends the notification through the requested gateway.
func (c Client) Push(ctx context.Context, production bool, n *apns2.Notification) (*apns2.Response, error) {
	client, err := getClient(ctx, production)
	if err != nil {
		return nil, err
	}

	return client.PushWithContext(ctx, n)
}

func getClient(ctx context.Context, production bool) (*apns2.Client, error) {
	mu.Lock()
	defer mu.Unlock()

	if client, ok := clients[production]; ok {
		return client, nil
	}

	if config == nil {
		cfg, err := utils.LoadAPNSConfig(ctx)
		if err != nil {
			return nil, err
		}
		if cfg.AuthKey == "" || cfg.KeyID == "" || cfg.TeamID == "" {
			return nil, fmt.Errorf("APNs is not configured")
		}

		key, err := token.AuthKeyFromBytes([]byte(cfg.AuthKey))
		if err != nil {
			return nil, fmt.Errorf("Could not parse APNs auth key: %v", err)
		}

		config = cfg
		authKey = key
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   config.KeyID,
		TeamID:  config.TeamID,
	})

	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	clients[production] = client
	return client, nil
}

//Shutdown Releases all APNs connections. Called on process shutdown.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()

	for _, client := range clients {
		client.HTTPClient.CloseIdleConnections()
	}
	clients = map[bool]*apns2.Client{}

	logging.FromContext(context.Background()).Debugf("APNs connections released")
}

//MockClient NOOP APNs client.
type MockClient struct{}

//Push Reports every notification as sent. NOOP.
func (c MockClient) Push(ctx context.Context, production bool, n *apns2.Notification) (*apns2.Response, error) {
	return &apns2.Response{StatusCode: http.StatusOK}, nil
}
