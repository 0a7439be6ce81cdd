package fanout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/udtalk/push-backend/internal/firebase/structs"
	"github.com/udtalk/push-backend/internal/pubsub"
	"github.com/udtalk/push-backend/internal/registry"
	"github.com/udtalk/push-backend/internal/store"
	"github.com/udtalk/push-backend/internal/utils"
)

type delivererRecorder struct {
	mu        sync.Mutex
	delivered []structs.Device
	overrides []string
	failFor   map[string]bool
	bundles   map[string]string
}

func newDelivererRecorder() *delivererRecorder {
	return &delivererRecorder{
		failFor: map[string]bool{},
		bundles: map[string]string{
			structs.TypeIOS:           "jp.co.udtalk.ios",
			structs.TypeWatchOS:       "jp.co.udtalk.watchos",
			structs.TypeWatchOSViaIOS: "jp.co.udtalk.ios",
		},
	}
}

func (r *delivererRecorder) Routable(device *structs.Device) bool {
	if device.Type == structs.TypeAndroid {
		return true
	}
	return r.bundles[device.Type] != ""
}

func (r *delivererRecorder) Deliver(ctx context.Context, device *structs.Device, override string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.delivered = append(r.delivered, *device)
	r.overrides = append(r.overrides, override)

	if r.failFor[device.UserID] {
		return fmt.Errorf("backend rejected token")
	}
	return nil
}

func (r *delivererRecorder) deliveredUsers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []string
	for _, device := range r.delivered {
		users = append(users, device.UserID)
	}
	return users
}

const (
	testHeartbeatThreshold = 70 * time.Second
	testActiveWindow       = 120 * time.Minute
	testMinPublishInterval = 15 * time.Minute
)

func testOrchestrator(client *store.MemoryClient, dispatcher Deliverer, now int64) *Orchestrator {
	return &Orchestrator{
		Store:      client,
		Registry:   &registry.Registry{Store: client, Now: func() int64 { return now }},
		Dispatcher: dispatcher,
		Events:     pubsub.MockClient{},
		Config: &utils.FanoutConfig{
			HeartbeatThreshold: testHeartbeatThreshold,
			ActiveWindow:       testActiveWindow,
			MinPublishInterval: testMinPublishInterval,
		},
		Now: func() int64 { return now },
	}
}

// seedDevice writes a device whose heartbeat falls inside the push window
// unless a timestamp is set.
func seedDevice(t *testing.T, client *store.MemoryClient, talkID string, device structs.Device, now int64) {
	t.Helper()

	if device.Timestamp == 0 {
		device.Timestamp = now - (5 * time.Minute).Milliseconds()
	}
	if device.DeviceToken == "" {
		device.DeviceToken = "tok-" + device.UserID
	}
	if err := client.SetDevice(context.Background(), talkID, device.UserID, &device); err != nil {
		t.Fatal(err)
	}
}

func TestPublishSkipsTriggeringUser(t *testing.T) {
	ctx := context.Background()
	now := int64(10_000_000_000)
	client := store.NewMemoryClient()
	dispatcher := newDelivererRecorder()

	seedDevice(t, client, "t1", structs.Device{UserID: "u1", Type: structs.TypeIOS}, now)
	seedDevice(t, client, "t1", structs.Device{UserID: "u2", Type: structs.TypeIOS}, now)

	orchestrator := testOrchestrator(client, dispatcher, now)
	assert.NoError(t, orchestrator.Publish(ctx, "t1", "u1", false))

	assert.Equal(t, []string{"u2"}, dispatcher.deliveredUsers())
}

func TestPublishSkipsRecentlyPublished(t *testing.T) {
	ctx := context.Background()
	now := int64(10_000_000_000)
	client := store.NewMemoryClient()
	dispatcher := newDelivererRecorder()

	seedDevice(t, client, "t1", structs.Device{
		UserID:               "u2",
		Type:                 structs.TypeIOS,
		LastPublishTimestamp: now - (5 * time.Minute).Milliseconds(),
	}, now)
	seedDevice(t, client, "t1", structs.Device{
		UserID:               "u3",
		Type:                 structs.TypeIOS,
		LastPublishTimestamp: now - (20 * time.Minute).Milliseconds(),
	}, now)

	orchestrator := testOrchestrator(client, dispatcher, now)
	assert.NoError(t, orchestrator.Publish(ctx, "t1", "u1", false))

	assert.Equal(t, []string{"u3"}, dispatcher.deliveredUsers())
}

func TestPublishForceBypassesRateLimitAndWindow(t *testing.T) {
	ctx := context.Background()
	now := int64(10_000_000_000)
	client := store.NewMemoryClient()
	dispatcher := newDelivererRecorder()

	// recently published
	seedDevice(t, client, "t1", structs.Device{
		UserID:               "u2",
		Type:                 structs.TypeIOS,
		LastPublishTimestamp: now - time.Minute.Milliseconds(),
	}, now)
	// heartbeat too fresh for the window
	seedDevice(t, client, "t1", structs.Device{
		UserID:    "u3",
		Type:      structs.TypeAndroid,
		Timestamp: now - time.Second.Milliseconds(),
	}, now)
	// heartbeat far beyond the active window
	seedDevice(t, client, "t1", structs.Device{
		UserID:    "u4",
		Type:      structs.TypeIOS,
		Timestamp: now - (200 * time.Minute).Milliseconds(),
	}, now)

	orchestrator := testOrchestrator(client, dispatcher, now)
	assert.NoError(t, orchestrator.Publish(ctx, "t1", "u1", true))

	assert.ElementsMatch(t, []string{"u2", "u3", "u4"}, dispatcher.deliveredUsers())

	// forced publishes do not touch lastPublishTimestamp
	device, _ := client.GetDevice(ctx, "t1", "u2")
	assert.Equal(t, now-time.Minute.Milliseconds(), device.LastPublishTimestamp)
}

func TestPublishExcludesDevicesOutsideWindow(t *testing.T) {
	ctx := context.Background()
	now := int64(10_000_000_000)
	client := store.NewMemoryClient()
	dispatcher := newDelivererRecorder()

	// currently live, assumed foregrounded
	seedDevice(t, client, "t1", structs.Device{
		UserID:    "u2",
		Type:      structs.TypeIOS,
		Timestamp: now - (10 * time.Second).Milliseconds(),
	}, now)
	// stale beyond the active window
	seedDevice(t, client, "t1", structs.Device{
		UserID:    "u3",
		Type:      structs.TypeIOS,
		Timestamp: now - (121 * time.Minute).Milliseconds(),
	}, now)
	// inside the window
	seedDevice(t, client, "t1", structs.Device{
		UserID:    "u4",
		Type:      structs.TypeIOS,
		Timestamp: now - (10 * time.Minute).Milliseconds(),
	}, now)

	orchestrator := testOrchestrator(client, dispatcher, now)
	assert.NoError(t, orchestrator.Publish(ctx, "t1", "u1", false))

	assert.Equal(t, []string{"u4"}, dispatcher.deliveredUsers())
}

func TestPublishSkipsEmptyTokens(t *testing.T) {
	ctx := context.Background()
	now := int64(10_000_000_000)
	client := store.NewMemoryClient()
	dispatcher := newDelivererRecorder()

	seedDevice(t, client, "t1", structs.Device{UserID: "u2", Type: structs.TypeIOS, DeviceToken: "   "}, now)
	seedDevice(t, client, "t1", structs.Device{UserID: "u3", Type: structs.TypeIOS}, now)

	orchestrator := testOrchestrator(client, dispatcher, now)
	assert.NoError(t, orchestrator.Publish(ctx, "t1", "u1", false))

	assert.Equal(t, []string{"u3"}, dispatcher.deliveredUsers())
}

func TestPublishSkipsUnroutableDevices(t *testing.T) {
	ctx := context.Background()
	now := int64(10_000_000_000)
	client := store.NewMemoryClient()
	dispatcher := newDelivererRecorder()
	dispatcher.bundles[structs.TypeWatchOS] = ""

	seedDevice(t, client, "t1", structs.Device{UserID: "u2", Type: structs.TypeWatchOS}, now)
	seedDevice(t, client, "t1", structs.Device{UserID: "u3", Type: "BlackBerry"}, now)
	seedDevice(t, client, "t1", structs.Device{UserID: "u4", Type: structs.TypeAndroid}, now)

	orchestrator := testOrchestrator(client, dispatcher, now)
	assert.NoError(t, orchestrator.Publish(ctx, "t1", "u1", false))

	assert.Equal(t, []string{"u4"}, dispatcher.deliveredUsers())
}

func TestPublishRecordsPublishTimestamps(t *testing.T) {
	ctx := context.Background()
	now := int64(10_000_000_000)
	client := store.NewMemoryClient()
	dispatcher := newDelivererRecorder()

	seedDevice(t, client, "t1", structs.Device{UserID: "u2", Type: structs.TypeIOS}, now)

	orchestrator := testOrchestrator(client, dispatcher, now)
	assert.NoError(t, orchestrator.Publish(ctx, "t1", "u1", false))

	device, _ := client.GetDevice(ctx, "t1", "u2")
	assert.Equal(t, now, device.LastPublishTimestamp)
}

func TestPublishIsolatesDeliveryFailures(t *testing.T) {
	ctx := context.Background()
	now := int64(10_000_000_000)
	client := store.NewMemoryClient()
	dispatcher := newDelivererRecorder()
	dispatcher.failFor["u2"] = true

	seedDevice(t, client, "t1", structs.Device{UserID: "u2", Type: structs.TypeIOS}, now)
	seedDevice(t, client, "t1", structs.Device{UserID: "u3", Type: structs.TypeAndroid}, now)

	orchestrator := testOrchestrator(client, dispatcher, now)
	assert.NoError(t, orchestrator.Publish(ctx, "t1", "u1", false))

	assert.ElementsMatch(t, []string{"u2", "u3"}, dispatcher.deliveredUsers())
}

func TestPublishJapaneseIOSScenario(t *testing.T) {
	ctx := context.Background()
	now := int64(10_000_000_000)
	client := store.NewMemoryClient()
	dispatcher := newDelivererRecorder()

	seedDevice(t, client, "t1", structs.Device{
		UserID:       "u1",
		DeviceToken:  "tok1",
		Type:         structs.TypeIOS,
		Env:          structs.EnvProduction,
		LanguageCode: "ja-JP",
	}, now)

	orchestrator := testOrchestrator(client, dispatcher, now)
	assert.NoError(t, orchestrator.Publish(ctx, "t1", "u2", false))

	if !assert.Len(t, dispatcher.delivered, 1) {
		return
	}
	delivered := dispatcher.delivered[0]
	assert.Equal(t, "u1", delivered.UserID)
	assert.Equal(t, "tok1", delivered.DeviceToken)
	assert.Equal(t, structs.TypeIOS, delivered.Type)
	assert.Equal(t, "ja-JP", delivered.LanguageCode)
	assert.Equal(t, "", dispatcher.overrides[0])

	device, _ := client.GetDevice(ctx, "t1", "u1")
	assert.Equal(t, now, device.LastPublishTimestamp)
}
