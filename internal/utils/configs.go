package utils

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/udtalk/push-backend/internal/logging"
)

//TimeoutsConfig Per-call deadlines for every external collaborator.
type TimeoutsConfig struct {
	Request time.Duration `env:"APP_REQUEST_TIMEOUT, default=28s"`
	Store   time.Duration `env:"FIRESTORE_TIMEOUT, default=5s"`
	APNS    time.Duration `env:"APNS_TIMEOUT, default=10s"`
	FCM     time.Duration `env:"FCM_TIMEOUT, default=8s"`
}

//FanoutConfig Eligibility windows of the notification fan-out.
type FanoutConfig struct {
	HeartbeatThreshold time.Duration `env:"HEARTBEAT_THRESHOLD, default=70s"`
	ActiveWindow       time.Duration `env:"ACTIVE_WINDOW, default=120m"`
	MinPublishInterval time.Duration `env:"MIN_PUBLISH_INTERVAL, default=15m"`
}

//APNSConfig Configuration of the APNs connection and app bundles.
type APNSConfig struct {
	AuthKey         string `env:"APPLE_APNS_AUTH_KEY"`
	KeyID           string `env:"APPLE_KEY_ID"`
	TeamID          string `env:"APPLE_TEAM_ID"`
	IOSBundleID     string `env:"APPLE_IOS_APP_BUNDLE_ID"`
	WatchOSBundleID string `env:"APPLE_WATCHOS_APP_BUNDLE_ID"`
}

//ServerConfig Configuration of the HTTP server.
type ServerConfig struct {
	Port string `env:"PORT, default=8081"`
	Env  string `env:"ENV, default=production"`
}

//IsDevelopment Reports whether error responses may carry internal detail.
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "development"
}

//LoadTimeoutsConfig Load timeouts config.
func LoadTimeoutsConfig(ctx context.Context) (*TimeoutsConfig, error) {
	logger := logging.FromContext(ctx)

	var timeoutsConfig TimeoutsConfig
	if err := envconfig.Process(ctx, &timeoutsConfig); err != nil {
		logger.Debugf("Could not load TimeoutsConfig: %v", err)
		return nil, err
	}

	return &timeoutsConfig, nil
}

//LoadFanoutConfig Load fan-out config.
func LoadFanoutConfig(ctx context.Context) (*FanoutConfig, error) {
	logger := logging.FromContext(ctx)

	var fanoutConfig FanoutConfig
	if err := envconfig.Process(ctx, &fanoutConfig); err != nil {
		logger.Debugf("Could not load FanoutConfig: %v", err)
		return nil, err
	}

	return &fanoutConfig, nil
}

//LoadAPNSConfig Load APNs config.
func LoadAPNSConfig(ctx context.Context) (*APNSConfig, error) {
	logger := logging.FromContext(ctx)

	var apnsConfig APNSConfig
	if err := envconfig.Process(ctx, &apnsConfig); err != nil {
		logger.Debugf("Could not load APNSConfig: %v", err)
		return nil, err
	}

	return &apnsConfig, nil
}

//LoadServerConfig Load server config.
func LoadServerConfig(ctx context.Context) (*ServerConfig, error) {
	logger := logging.FromContext(ctx)

	var serverConfig ServerConfig
	if err := envconfig.Process(ctx, &serverConfig); err != nil {
		logger.Debugf("Could not load ServerConfig: %v", err)
		return nil, err
	}

	return &serverConfig, nil
}
