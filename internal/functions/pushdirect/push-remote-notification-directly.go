package pushdirect

import (
	"net/http"
	"strings"

	"github.com/udtalk/push-backend/internal/apns"
	"github.com/udtalk/push-backend/internal/auth"
	"github.com/udtalk/push-backend/internal/firebase/structs"
	"github.com/udtalk/push-backend/internal/logging"
	"github.com/udtalk/push-backend/internal/messaging"
	"github.com/udtalk/push-backend/internal/push"
	"github.com/udtalk/push-backend/internal/secrets"
	httputils "github.com/udtalk/push-backend/internal/utils/http"
)

type request struct {
	DeviceToken string `validate:"required"`
	Type        string `validate:"required"`
}

//PushRemoteNotificationDirectly Handler. Sends a single push to an explicitly
//given token, always through the production environment, and surfaces delivery
//failures to the caller.
func PushRemoteNotificationDirectly(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	logger := logging.FromContext(ctx).Named("pushdirect.PushRemoteNotificationDirectly")

	params, ok := httputils.ParseParamsOrReportError(w, r)
	if !ok {
		return
	}

	authClient := auth.Client{Secrets: secrets.Client{}}
	if err := authClient.Check(ctx, httputils.APIKey(params, r)); err != nil {
		httputils.SendErrorResponse(w, r, err)
		return
	}

	var request = request{
		DeviceToken: strings.TrimSpace(params.Get("deviceToken")),
		Type:        params.Get("type"),
	}
	if !httputils.ValidateOrReportError(w, r, &request) {
		return
	}

	logger.Debugf("Handling PushRemoteNotificationDirectly request, type=%v", request.Type)

	dispatcher, err := push.NewDispatcher(ctx, apns.Client{}, messaging.Client{})
	if err != nil {
		httputils.SendErrorResponse(w, r, err)
		return
	}

	device := &structs.Device{
		DeviceToken:  request.DeviceToken,
		Type:         request.Type,
		Env:          structs.EnvProduction,
		LanguageCode: params.Get("languageCode"),
	}

	if err := dispatcher.Deliver(ctx, device, params.Get("message")); err != nil {
		logger.Warnf("Cannot handle PushRemoteNotificationDirectly request: %v", err)
		httputils.SendErrorResponse(w, r, err)
		return
	}

	httputils.SendResult(w, r)
}
