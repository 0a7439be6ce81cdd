// Package sweeper prunes device registrations that stopped heartbeating and
// repairs the denormalized per-talk device counter. It is the convergence
// mechanism for the counter races the registry tolerates.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/udtalk/push-backend/internal/firebase/structs"
	"github.com/udtalk/push-backend/internal/logging"
	"github.com/udtalk/push-backend/internal/store"
	"github.com/udtalk/push-backend/internal/utils"
	"github.com/udtalk/push-backend/internal/utils/timeout"
)

const defaultTalkConcurrency = 4

//Sweeper Prunes stale devices and repairs talk counters.
type Sweeper struct {
	Store           store.Storer
	ActiveWindow    time.Duration
	StoreTimeout    time.Duration
	TalkConcurrency int
	Now             func() int64
}

//New Creates a sweeper over the given store.
func New(ctx context.Context, storer store.Storer) (*Sweeper, error) {
	fanoutConfig, err := utils.LoadFanoutConfig(ctx)
	if err != nil {
		return nil, err
	}

	timeouts, err := utils.LoadTimeoutsConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &Sweeper{
		Store:           storer,
		ActiveWindow:    fanoutConfig.ActiveWindow,
		StoreTimeout:    timeouts.Store,
		TalkConcurrency: defaultTalkConcurrency,
		Now:             utils.NowMillis,
	}, nil
}

//Sweep Processes every talk: deletes devices not seen within the active
//window, deletes talks left without active devices and corrects mismatched
//counters. Talks are processed concurrently; per-device failures are logged
//and never abort the sweep.
func (s *Sweeper) Sweep(ctx context.Context) error {
	logger := logging.FromContext(ctx).Named("sweeper.Sweep")

	var talks []store.TalkEntry
	err := timeout.Run(ctx, s.StoreTimeout, "firestore_get_talks_for_cleanup", func(ctx context.Context) error {
		var err error
		talks, err = s.Store.ListTalks(ctx)
		return err
	})
	if err != nil {
		return err
	}

	concurrency := s.TalkConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	gate := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for _, talk := range talks {
		talk := talk

		wg.Add(1)
		gate <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-gate }()

			s.sweepTalk(ctx, talk)
		}()
	}
	wg.Wait()

	logger.Debugf("Swept %v talks", len(talks))

	return nil
}

func (s *Sweeper) sweepTalk(ctx context.Context, talk store.TalkEntry) {
	logger := logging.FromContext(ctx).Named("sweeper.sweepTalk")

	now := s.Now()

	var devices []structs.Device
	err := timeout.Run(ctx, s.StoreTimeout, "firestore_get_users_for_cleanup", func(ctx context.Context) error {
		var err error
		devices, err = s.Store.ListDevices(ctx, talk.ID)
		return err
	})
	if err != nil {
		logger.Warnf("Could not list devices of talk %v: %v", talk.ID, err)
		return
	}

	var wg sync.WaitGroup
	activeCount := 0

	for _, device := range devices {
		if now-s.ActiveWindow.Milliseconds() > device.Timestamp {
			device := device

			wg.Add(1)
			go func() {
				defer wg.Done()

				err := timeout.Run(ctx, s.StoreTimeout, "firestore_delete_inactive_device", func(ctx context.Context) error {
					return s.Store.DeleteDevice(ctx, talk.ID, device.UserID)
				})
				if err != nil {
					logger.Warnf("Could not delete inactive device %v/%v: %v", talk.ID, device.UserID, err)
				}
			}()
		} else {
			activeCount++
		}
	}

	// deletions must settle before the repair decision
	wg.Wait()

	if activeCount <= 0 {
		err := timeout.Run(ctx, s.StoreTimeout, "firestore_delete_empty_talk", func(ctx context.Context) error {
			return s.Store.DeleteTalk(ctx, talk.ID)
		})
		if err != nil {
			logger.Warnf("Could not delete empty talk %v: %v", talk.ID, err)
		}
		return
	}

	if activeCount != talk.Talk.UserCount {
		err := timeout.Run(ctx, s.StoreTimeout, "firestore_update_active_count", func(ctx context.Context) error {
			return s.Store.SetTalk(ctx, talk.ID, &structs.Talk{UserCount: activeCount})
		})
		if err != nil {
			logger.Warnf("Could not repair device count of talk %v: %v", talk.ID, err)
		}
	}
}
