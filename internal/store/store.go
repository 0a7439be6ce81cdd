package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/udtalk/push-backend/internal/constants"
	"github.com/udtalk/push-backend/internal/firebase"
	"github.com/udtalk/push-backend/internal/firebase/structs"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

//TalkEntry Talk document together with its id, as returned by listings.
type TalkEntry struct {
	ID   string
	Talk structs.Talk
}

// Storer is a storage abstraction layer interface. Absent documents are never
// an error: getters return nil, updates and deletes of missing documents are
// no-ops.
type Storer interface {
	GetTalk(ctx context.Context, talkID string) (*structs.Talk, error)
	SetTalk(ctx context.Context, talkID string, talk *structs.Talk) error
	DeleteTalk(ctx context.Context, talkID string) error
	ListTalks(ctx context.Context) ([]TalkEntry, error)

	GetDevice(ctx context.Context, talkID string, userID string) (*structs.Device, error)
	SetDevice(ctx context.Context, talkID string, userID string, device *structs.Device) error
	UpdateDevice(ctx context.Context, talkID string, userID string, fields map[string]interface{}) error
	DeleteDevice(ctx context.Context, talkID string, userID string) error
	ListDevices(ctx context.Context, talkID string) ([]structs.Device, error)
	DevicesSeenBetween(ctx context.Context, talkID string, from int64, to int64) ([]structs.Device, error)
}

// Client to interact with storage API
type Client struct{}

func talkDoc(talkID string) *firestore.DocumentRef {
	return firebase.FirestoreClient.Collection(constants.CollectionTalks).Doc(talkID)
}

func deviceDoc(talkID string, userID string) *firestore.DocumentRef {
	return talkDoc(talkID).Collection(constants.CollectionUsers).Doc(userID)
}

// GetTalk reads the talk document. Returns nil when the talk does not exist.
func (i Client) GetTalk(ctx context.Context, talkID string) (*structs.Talk, error) {
	rec, err := talkDoc(talkID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("Error while querying Firestore: %v", err)
	}

	var talk structs.Talk
	if err := rec.DataTo(&talk); err != nil {
		return nil, fmt.Errorf("Error while querying Firestore: %v", err)
	}

	return &talk, nil
}

// SetTalk writes the talk document, merging into an existing one.
func (i Client) SetTalk(ctx context.Context, talkID string, talk *structs.Talk) error {
	_, err := talkDoc(talkID).Set(ctx, map[string]interface{}{"userCount": talk.UserCount}, firestore.MergeAll)
	return err
}

// DeleteTalk deletes the talk document. Deleting a missing talk is a no-op.
func (i Client) DeleteTalk(ctx context.Context, talkID string) error {
	_, err := talkDoc(talkID).Delete(ctx)
	return err
}

// ListTalks lists all talk documents.
func (i Client) ListTalks(ctx context.Context) ([]TalkEntry, error) {
	iter := firebase.FirestoreClient.Collection(constants.CollectionTalks).Documents(ctx)
	defer iter.Stop()

	var talks []TalkEntry
	for {
		rec, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Error while querying Firestore: %v", err)
		}

		var talk structs.Talk
		if err := rec.DataTo(&talk); err != nil {
			return nil, fmt.Errorf("Error while querying Firestore: %v", err)
		}
		talks = append(talks, TalkEntry{ID: rec.Ref.ID, Talk: talk})
	}

	return talks, nil
}

// GetDevice reads a device registration. Returns nil when it does not exist.
func (i Client) GetDevice(ctx context.Context, talkID string, userID string) (*structs.Device, error) {
	rec, err := deviceDoc(talkID, userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("Error while querying Firestore: %v", err)
	}

	var device structs.Device
	if err := rec.DataTo(&device); err != nil {
		return nil, fmt.Errorf("Error while querying Firestore: %v", err)
	}

	return &device, nil
}

// SetDevice writes a device registration document, replacing any previous one.
func (i Client) SetDevice(ctx context.Context, talkID string, userID string, device *structs.Device) error {
	_, err := deviceDoc(talkID, userID).Set(ctx, device.Fields())
	return err
}

// UpdateDevice merges fields into a device registration. Updating a missing
// device is a no-op.
func (i Client) UpdateDevice(ctx context.Context, talkID string, userID string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}

	_, err := deviceDoc(talkID, userID).Update(ctx, updates)
	if err != nil && status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

// DeleteDevice deletes a device registration. Deleting a missing one is a no-op.
func (i Client) DeleteDevice(ctx context.Context, talkID string, userID string) error {
	_, err := deviceDoc(talkID, userID).Delete(ctx)
	return err
}

// ListDevices lists all device registrations under a talk.
func (i Client) ListDevices(ctx context.Context, talkID string) ([]structs.Device, error) {
	iter := talkDoc(talkID).Collection(constants.CollectionUsers).Documents(ctx)
	return collectDevices(iter)
}

// DevicesSeenBetween lists devices whose heartbeat timestamp falls in [from, to].
func (i Client) DevicesSeenBetween(ctx context.Context, talkID string, from int64, to int64) ([]structs.Device, error) {
	query := talkDoc(talkID).Collection(constants.CollectionUsers).
		Where("timestamp", ">=", from).
		Where("timestamp", "<=", to)

	return collectDevices(query.Documents(ctx))
}

func collectDevices(iter *firestore.DocumentIterator) ([]structs.Device, error) {
	defer iter.Stop()

	var devices []structs.Device
	for {
		rec, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Error while querying Firestore: %v", err)
		}

		var device structs.Device
		if err := rec.DataTo(&device); err != nil {
			return nil, fmt.Errorf("Error while querying Firestore: %v", err)
		}
		devices = append(devices, device)
	}

	return devices, nil
}
