package pushnewutterance

import (
	"net/http"

	"github.com/udtalk/push-backend/internal/apns"
	"github.com/udtalk/push-backend/internal/auth"
	"github.com/udtalk/push-backend/internal/fanout"
	"github.com/udtalk/push-backend/internal/logging"
	"github.com/udtalk/push-backend/internal/messaging"
	"github.com/udtalk/push-backend/internal/pubsub"
	"github.com/udtalk/push-backend/internal/push"
	"github.com/udtalk/push-backend/internal/secrets"
	"github.com/udtalk/push-backend/internal/store"
	httputils "github.com/udtalk/push-backend/internal/utils/http"
)

type request struct {
	UserID string `validate:"required"`
	TalkID string `validate:"required"`
}

//PushNewUtteranceNotification Handler. Fans a new-utterance push out to all
//eligible devices of the talk except the triggering user's.
func PushNewUtteranceNotification(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	logger := logging.FromContext(ctx).Named("pushnewutterance.PushNewUtteranceNotification")

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

	force := params.Get("forcePublishing") == "1"

	logger.Debugf("Handling PushNewUtteranceNotification request: %+v, force=%v", request, force)

	dispatcher, err := push.NewDispatcher(ctx, apns.Client{}, messaging.Client{})
	if err != nil {
		httputils.SendErrorResponse(w, r, err)
		return
	}

	orchestrator, err := fanout.New(ctx, store.Client{}, dispatcher, pubsub.Client{})
	if err != nil {
		httputils.SendErrorResponse(w, r, err)
		return
	}

	if err := orchestrator.Publish(ctx, request.TalkID, request.UserID, force); err != nil {
		logger.Warnf("Cannot handle PushNewUtteranceNotification request: %v", err)
		httputils.SendErrorResponse(w, r, err)
		return
	}

	httputils.SendResult(w, r)
}
