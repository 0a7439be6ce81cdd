package unregisterdevice

import (
	"net/http"

	"github.com/udtalk/push-backend/internal/auth"
	"github.com/udtalk/push-backend/internal/logging"
	"github.com/udtalk/push-backend/internal/registry"
	"github.com/udtalk/push-backend/internal/secrets"
	"github.com/udtalk/push-backend/internal/store"
	httputils "github.com/udtalk/push-backend/internal/utils/http"
)

type request struct {
	UserID string `validate:"required"`
	TalkID string `validate:"required"`
}

//UnregisterDevice Handler
func UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	logger := logging.FromContext(ctx).Named("unregisterdevice.UnregisterDevice")

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

	logger.Debugf("Handling UnregisterDevice request: %+v", request)

	reg, err := registry.New(ctx, store.Client{})
	if err != nil {
		httputils.SendErrorResponse(w, r, err)
		return
	}

	if err := reg.Unregister(ctx, request.TalkID, request.UserID); err != nil {
		logger.Warnf("Cannot handle UnregisterDevice request: %v", err)
		httputils.SendErrorResponse(w, r, err)
		return
	}

	httputils.SendResult(w, r)
}
