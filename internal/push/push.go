package push

import (
	"context"
	"fmt"
	"strings"

	fbmessaging "firebase.google.com/go/messaging"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/udtalk/push-backend/internal/apns"
	"github.com/udtalk/push-backend/internal/firebase/structs"
	"github.com/udtalk/push-backend/internal/messages"
	"github.com/udtalk/push-backend/internal/messaging"
	"github.com/udtalk/push-backend/internal/utils"
	"github.com/udtalk/push-backend/internal/utils/errors"
	"github.com/udtalk/push-backend/internal/utils/timeout"
)

// Apple notification shape: badge reset, fixed sound, alert type,
// content-available with priority 5.
const (
	appleSound    = "ping.aiff"
	applePriority = apns2.PriorityLow
)

//Dispatcher Sends one notification to one device, routed by device type.
type Dispatcher struct {
	Apple    apns.Sender
	Android  messaging.PushSender
	Timeouts *utils.TimeoutsConfig
	Bundles  *utils.APNSConfig
}

//NewDispatcher Creates a dispatcher over the given backend clients.
func NewDispatcher(ctx context.Context, apple apns.Sender, android messaging.PushSender) (*Dispatcher, error) {
	timeouts, err := utils.LoadTimeoutsConfig(ctx)
	if err != nil {
		return nil, err
	}

	bundles, err := utils.LoadAPNSConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		Apple:    apple,
		Android:  android,
		Timeouts: timeouts,
		Bundles:  bundles,
	}, nil
}

//BundleID Resolves the APNs topic for a device type. Empty when the type has
//no bundle configured.
func (d *Dispatcher) BundleID(deviceType string) string {
	switch deviceType {
	case structs.TypeIOS, structs.TypeWatchOSViaIOS:
		return d.Bundles.IOSBundleID
	case structs.TypeWatchOS:
		return d.Bundles.WatchOSBundleID
	}

	return ""
}

//Routable Reports whether a notification for the device can be routed at all.
//Apple devices without a resolvable bundle fail closed.
func (d *Dispatcher) Routable(device *structs.Device) bool {
	if device.Type == structs.TypeAndroid {
		return true
	}

	return device.IsApple() && d.BundleID(device.Type) != ""
}

//Deliver Builds the localized content for the device and sends it through the
//matching backend. An empty override keeps the standard new-utterance copy.
func (d *Dispatcher) Deliver(ctx context.Context, device *structs.Device, override string) error {
	deviceToken := strings.TrimSpace(device.DeviceToken)

	switch {
	case device.Type == structs.TypeAndroid:
		title, body := messages.ForAndroid(device.LanguageCode)
		if override != "" {
			body = override
		}
		return d.SendAndroid(ctx, deviceToken, title, body)

	case device.IsApple():
		bundleID := d.BundleID(device.Type)
		if bundleID == "" {
			return &errors.ValidationError{Msg: "Unsupported Apple bundle type"}
		}

		message := messages.ForApple(device.LanguageCode, device.Type)
		if override != "" {
			message = override
		}
		return d.SendApple(ctx, deviceToken, device.Env == structs.EnvProduction, bundleID, message)
	}

	return &errors.ValidationError{Msg: "Unsupported device type"}
}

//SendApple Sends one alert notification through APNs, bounded by the APNs
//deadline. Token-level rejections surface as DeliveryError.
func (d *Dispatcher) SendApple(ctx context.Context, deviceToken string, production bool, bundleID string, message string) error {
	if deviceToken == "" || bundleID == "" {
		return &errors.ValidationError{Msg: "APNs requires deviceToken and bundleId"}
	}

	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       bundleID,
		Priority:    applePriority,
		PushType:    apns2.PushTypeAlert,
		Payload: payload.NewPayload().
			Alert(message).
			Badge(0).
			Sound(appleSound).
			ContentAvailable(),
	}

	return timeout.Run(ctx, d.Timeouts.APNS, "apns_send", func(ctx context.Context) error {
		response, err := d.Apple.Push(ctx, production, notification)
		if err != nil {
			return err
		}

		if !response.Sent() {
			return &errors.DeliveryError{
				Msg:    "APNs push failed",
				Detail: fmt.Sprintf("%v %v", response.StatusCode, response.Reason),
			}
		}

		return nil
	})
}

//SendAndroid Sends one notification message through FCM, bounded by the FCM
//deadline.
func (d *Dispatcher) SendAndroid(ctx context.Context, deviceToken string, title string, body string) error {
	if deviceToken == "" {
		return &errors.ValidationError{Msg: "FCM requires deviceToken"}
	}

	message := &fbmessaging.Message{
		Notification: &fbmessaging.Notification{
			Title: title,
			Body:  body,
		},
		Token: deviceToken,
	}

	return timeout.Run(ctx, d.Timeouts.FCM, "fcm_send", func(ctx context.Context) error {
		return d.Android.Send(ctx, message)
	})
}
