package store

import (
	"context"
	"sort"
	"sync"

	"github.com/udtalk/push-backend/internal/firebase/structs"
)

// MemoryClient is an in-memory Storer for unit tests. Safe for concurrent use.
type MemoryClient struct {
	mu      sync.Mutex
	talks   map[string]structs.Talk
	devices map[string]map[string]structs.Device
}

// NewMemoryClient creates an empty in-memory store.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		talks:   make(map[string]structs.Talk),
		devices: make(map[string]map[string]structs.Device),
	}
}

// GetTalk reads the talk document. Returns nil when the talk does not exist.
func (m *MemoryClient) GetTalk(ctx context.Context, talkID string) (*structs.Talk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	talk, ok := m.talks[talkID]
	if !ok {
		return nil, nil
	}
	return &talk, nil
}

// SetTalk writes the talk document.
func (m *MemoryClient) SetTalk(ctx context.Context, talkID string, talk *structs.Talk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.talks[talkID] = *talk
	return nil
}

// DeleteTalk deletes the talk document.
func (m *MemoryClient) DeleteTalk(ctx context.Context, talkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.talks, talkID)
	return nil
}

// ListTalks lists all talk documents, ordered by id for deterministic tests.
func (m *MemoryClient) ListTalks(ctx context.Context) ([]TalkEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var talks []TalkEntry
	for id, talk := range m.talks {
		talks = append(talks, TalkEntry{ID: id, Talk: talk})
	}
	sort.Slice(talks, func(i, j int) bool { return talks[i].ID < talks[j].ID })

	return talks, nil
}

// GetDevice reads a device registration. Returns nil when it does not exist.
func (m *MemoryClient) GetDevice(ctx context.Context, talkID string, userID string) (*structs.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	device, ok := m.devices[talkID][userID]
	if !ok {
		return nil, nil
	}
	return &device, nil
}

// SetDevice writes a device registration, replacing any previous one.
func (m *MemoryClient) SetDevice(ctx context.Context, talkID string, userID string, device *structs.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.devices[talkID] == nil {
		m.devices[talkID] = make(map[string]structs.Device)
	}
	m.devices[talkID][userID] = *device
	return nil
}

// UpdateDevice merges known fields into a device registration. Updating a
// missing device is a no-op.
func (m *MemoryClient) UpdateDevice(ctx context.Context, talkID string, userID string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	device, ok := m.devices[talkID][userID]
	if !ok {
		return nil
	}

	for k, v := range fields {
		switch k {
		case "deviceToken":
			device.DeviceToken, _ = v.(string)
		case "type":
			device.Type, _ = v.(string)
		case "env":
			device.Env, _ = v.(string)
		case "languageCode":
			device.LanguageCode, _ = v.(string)
		case "timestamp":
			device.Timestamp, _ = v.(int64)
		case "lastPublishTimestamp":
			device.LastPublishTimestamp, _ = v.(int64)
		default:
			if device.Attrs == nil {
				device.Attrs = make(map[string]string)
			}
			if s, isString := v.(string); isString {
				device.Attrs[k] = s
			}
		}
	}

	m.devices[talkID][userID] = device
	return nil
}

// DeleteDevice deletes a device registration.
func (m *MemoryClient) DeleteDevice(ctx context.Context, talkID string, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.devices[talkID], userID)
	return nil
}

// ListDevices lists all device registrations under a talk, ordered by user id.
func (m *MemoryClient) ListDevices(ctx context.Context, talkID string) ([]structs.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.collect(talkID, func(structs.Device) bool { return true }), nil
}

// DevicesSeenBetween lists devices whose heartbeat timestamp falls in [from, to].
func (m *MemoryClient) DevicesSeenBetween(ctx context.Context, talkID string, from int64, to int64) ([]structs.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.collect(talkID, func(d structs.Device) bool {
		return d.Timestamp >= from && d.Timestamp <= to
	}), nil
}

func (m *MemoryClient) collect(talkID string, match func(structs.Device) bool) []structs.Device {
	var devices []structs.Device
	for _, device := range m.devices[talkID] {
		if match(device) {
			devices = append(devices, device)
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].UserID < devices[j].UserID })

	return devices
}
