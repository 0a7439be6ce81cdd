// Package registry owns all writes to talk and device documents, including
// the denormalized per-talk device counter. The counter is a repairable
// cache: concurrent registrations may under- or over-count and the sweeper
// converges it, so no transactions are used here.
package registry

import (
	"context"
	"time"

	"github.com/udtalk/push-backend/internal/firebase/structs"
	"github.com/udtalk/push-backend/internal/logging"
	"github.com/udtalk/push-backend/internal/store"
	"github.com/udtalk/push-backend/internal/utils"
	"github.com/udtalk/push-backend/internal/utils/timeout"
)

//Registry Device registration registry over a document store.
type Registry struct {
	Store        store.Storer
	StoreTimeout time.Duration
	Now          func() int64
}

//New Creates a registry over the given store.
func New(ctx context.Context, storer store.Storer) (*Registry, error) {
	timeouts, err := utils.LoadTimeoutsConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &Registry{
		Store:        storer,
		StoreTimeout: timeouts.Store,
		Now:          utils.NowMillis,
	}, nil
}

//Register Upserts the device registration and maintains the talk counter.
//An empty device token is a successful no-op; nothing is written.
func (r *Registry) Register(ctx context.Context, talkID string, userID string, device *structs.Device) error {
	logger := logging.FromContext(ctx).Named("registry.Register")

	if device.DeviceToken == "" {
		logger.Debugf("No device token for %v/%v, nothing to register", talkID, userID)
		return nil
	}

	return timeout.Run(ctx, r.StoreTimeout, "firestore_register_device", func(ctx context.Context) error {
		talk, err := r.Store.GetTalk(ctx, talkID)
		if err != nil {
			return err
		}
		existing, err := r.Store.GetDevice(ctx, talkID, userID)
		if err != nil {
			return err
		}

		if talk == nil {
			if err := r.Store.SetTalk(ctx, talkID, &structs.Talk{UserCount: 1}); err != nil {
				return err
			}
		} else if existing == nil {
			if err := r.Store.SetTalk(ctx, talkID, &structs.Talk{UserCount: talk.UserCount + 1}); err != nil {
				return err
			}
		}

		device.UserID = userID
		device.Timestamp = r.Now()
		device.LastPublishTimestamp = 0

		return r.Store.SetDevice(ctx, talkID, userID, device)
	})
}

//Unregister Deletes the device registration and decrements the talk counter,
//deleting the talk when it reaches zero. A missing registration is a no-op.
func (r *Registry) Unregister(ctx context.Context, talkID string, userID string) error {
	return timeout.Run(ctx, r.StoreTimeout, "firestore_unregister_device", func(ctx context.Context) error {
		device, err := r.Store.GetDevice(ctx, talkID, userID)
		if err != nil {
			return err
		}
		if device == nil {
			return nil
		}

		if err := r.Store.DeleteDevice(ctx, talkID, userID); err != nil {
			return err
		}

		talk, err := r.Store.GetTalk(ctx, talkID)
		if err != nil {
			return err
		}
		if talk == nil {
			return nil
		}

		userCount := talk.UserCount - 1
		if userCount <= 0 {
			return r.Store.DeleteTalk(ctx, talkID)
		}

		return r.Store.SetTalk(ctx, talkID, &structs.Talk{UserCount: userCount})
	})
}

//UpdateStatus Merges fields into the device registration and refreshes its
//heartbeat timestamp. A missing registration is a no-op.
func (r *Registry) UpdateStatus(ctx context.Context, talkID string, userID string, fields map[string]interface{}) error {
	return timeout.Run(ctx, r.StoreTimeout, "firestore_update_device_status", func(ctx context.Context) error {
		device, err := r.Store.GetDevice(ctx, talkID, userID)
		if err != nil {
			return err
		}
		if device == nil {
			return nil
		}

		updates := make(map[string]interface{}, len(fields)+1)
		for k, v := range fields {
			updates[k] = v
		}
		updates["timestamp"] = r.Now()

		return r.Store.UpdateDevice(ctx, talkID, userID, updates)
	})
}

//MarkPublished Records the time a push was last sent to the device.
func (r *Registry) MarkPublished(ctx context.Context, talkID string, userID string, publishedAt int64) error {
	return timeout.Run(ctx, r.StoreTimeout, "firestore_update_last_publish", func(ctx context.Context) error {
		return r.Store.UpdateDevice(ctx, talkID, userID, map[string]interface{}{
			"lastPublishTimestamp": publishedAt,
		})
	})
}
