// Package fanout delivers one new-utterance notification to every eligible
// device of a talk. Sends are isolated: one device's failure never aborts the
// others, and the operation as a whole succeeds once every attempt resolved.
package fanout

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udtalk/push-backend/internal/constants"
	"github.com/udtalk/push-backend/internal/firebase/structs"
	"github.com/udtalk/push-backend/internal/logging"
	"github.com/udtalk/push-backend/internal/pubsub"
	"github.com/udtalk/push-backend/internal/registry"
	"github.com/udtalk/push-backend/internal/store"
	"github.com/udtalk/push-backend/internal/utils"
	"github.com/udtalk/push-backend/internal/utils/timeout"
)

//Deliverer Sends one notification to one device.
type Deliverer interface {
	Routable(device *structs.Device) bool
	Deliver(ctx context.Context, device *structs.Device, override string) error
}

//Orchestrator Fan-out of one trigger event to all eligible devices of a talk.
type Orchestrator struct {
	Store        store.Storer
	Registry     *registry.Registry
	Dispatcher   Deliverer
	Events       pubsub.EventPublisher
	Config       *utils.FanoutConfig
	StoreTimeout time.Duration
	Now          func() int64
}

//New Creates an orchestrator over the given collaborators.
func New(ctx context.Context, storer store.Storer, dispatcher Deliverer, events pubsub.EventPublisher) (*Orchestrator, error) {
	fanoutConfig, err := utils.LoadFanoutConfig(ctx)
	if err != nil {
		return nil, err
	}

	timeouts, err := utils.LoadTimeoutsConfig(ctx)
	if err != nil {
		return nil, err
	}

	reg, err := registry.New(ctx, storer)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		Store:        storer,
		Registry:     reg,
		Dispatcher:   dispatcher,
		Events:       events,
		Config:       fanoutConfig,
		StoreTimeout: timeouts.Store,
		Now:          utils.NowMillis,
	}, nil
}

//Publish Notifies all eligible devices of the talk about a new utterance from
//the given user. When force is set, the recency window and the republish rate
//limit are bypassed and no publish timestamps are recorded.
func (o *Orchestrator) Publish(ctx context.Context, talkID string, userID string, force bool) error {
	logger := logging.FromContext(ctx).Named("fanout.Publish")

	now := o.Now()

	var targets []structs.Device
	err := timeout.Run(ctx, o.StoreTimeout, "firestore_get_push_targets", func(ctx context.Context) error {
		var err error
		if force {
			targets, err = o.Store.ListDevices(ctx, talkID)
		} else {
			// Recently seen but not currently live: a device heartbeating within
			// the threshold is assumed foregrounded and needs no push.
			from := now - o.Config.ActiveWindow.Milliseconds()
			to := now - o.Config.HeartbeatThreshold.Milliseconds()
			targets, err = o.Store.DevicesSeenBetween(ctx, talkID, from, to)
		}
		return err
	})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var dispatched int32

	for _, target := range targets {
		if target.UserID == userID {
			continue
		}
		if !force && target.LastPublishTimestamp > now-o.Config.MinPublishInterval.Milliseconds() {
			continue
		}
		if strings.TrimSpace(target.DeviceToken) == "" {
			continue
		}
		if !o.Dispatcher.Routable(&target) {
			continue
		}

		device := target

		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := o.Dispatcher.Deliver(ctx, &device, ""); err != nil {
				logger.Warnf("Could not deliver push to %v/%v: %v", talkID, device.UserID, err)
				return
			}
			atomic.AddInt32(&dispatched, 1)
		}()

		if !force {
			wg.Add(1)
			go func() {
				defer wg.Done()

				if err := o.Registry.MarkPublished(ctx, talkID, device.UserID, now); err != nil {
					logger.Warnf("Could not record publish timestamp for %v/%v: %v", talkID, device.UserID, err)
				}
			}()
		}
	}

	wg.Wait()

	event := pubsub.NotificationPublishedEvent{
		TalkID:     talkID,
		UserID:     userID,
		Dispatched: int(atomic.LoadInt32(&dispatched)),
		Forced:     force,
	}
	if err := o.Events.Publish(constants.TopicNotificationPublished, event); err != nil {
		logger.Warnf("Could not publish %v event: %v", constants.TopicNotificationPublished, err)
	}

	return nil
}
