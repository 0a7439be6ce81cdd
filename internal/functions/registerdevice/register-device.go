package registerdevice

import (
	"net/http"
	"strings"

	"github.com/udtalk/push-backend/internal/auth"
	"github.com/udtalk/push-backend/internal/constants"
	"github.com/udtalk/push-backend/internal/firebase/structs"
	"github.com/udtalk/push-backend/internal/logging"
	"github.com/udtalk/push-backend/internal/pubsub"
	"github.com/udtalk/push-backend/internal/registry"
	"github.com/udtalk/push-backend/internal/secrets"
	"github.com/udtalk/push-backend/internal/store"
	httputils "github.com/udtalk/push-backend/internal/utils/http"
)

type request struct {
	UserID string `validate:"required"`
	TalkID string `validate:"required"`
}

//RegisterDevice Handler
func RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	logger := logging.FromContext(ctx).Named("registerdevice.RegisterDevice")

	params, ok := httputils.ParseParamsOrReportError(w, r)
	if !ok {
		return
	}

	authClient := auth.Client{Secrets: secrets.Client{}}
	if err := authClient.Check(ctx, httputils.APIKey(params, r)); err != nil {
		httputils.SendErrorResponse(w, r, err)
		return
	}

	var request = request{UserID: params.Get("userId"), TalkID: params.Get("talkId")}
	if !httputils.ValidateOrReportError(w, r, &request) {
		return
	}

	logger.Debugf("Handling RegisterDevice request: %+v", request)

	device := &structs.Device{
		UserID:       request.UserID,
		DeviceToken:  strings.TrimSpace(params.Get("deviceToken")),
		Type:         params.Get("type"),
		Env:          params.Get("env"),
		LanguageCode: params.Get("languageCode"),
		Attrs: params.Without("key", "userId", "talkId", "deviceToken", "type", "env",
			"languageCode", "timestamp", "lastPublishTimestamp"),
	}

	reg, err := registry.New(ctx, store.Client{})
	if err != nil {
		httputils.SendErrorResponse(w, r, err)
		return
	}

	if err := reg.Register(ctx, request.TalkID, request.UserID, device); err != nil {
		logger.Warnf("Cannot handle RegisterDevice request: %v", err)
		httputils.SendErrorResponse(w, r, err)
		return
	}

	if device.DeviceToken != "" {
		event := pubsub.DeviceRegisteredEvent{
			TalkID: request.TalkID,
			UserID: request.UserID,
			Type:   device.Type,
		}
		if err := (pubsub.Client{}).Publish(constants.TopicDeviceRegistered, event); err != nil {
			logger.Warnf("Could not publish %v event: %v", constants.TopicDeviceRegistered, err)
		}
	}

	httputils.SendResult(w, r)
}
