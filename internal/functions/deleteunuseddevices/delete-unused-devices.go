package deleteunuseddevices

import (
	"net/http"

	"github.com/udtalk/push-backend/internal/auth"
	"github.com/udtalk/push-backend/internal/logging"
	"github.com/udtalk/push-backend/internal/secrets"
	"github.com/udtalk/push-backend/internal/store"
	"github.com/udtalk/push-backend/internal/sweeper"
	httputils "github.com/udtalk/push-backend/internal/utils/http"
)

//DeleteUnusedDevices Handler. Removes devices whose last heartbeat fell out of
//the active window and repairs the per-talk user counters.
func DeleteUnusedDevices(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	logger := logging.FromContext(ctx).Named("deleteunuseddevices.DeleteUnusedDevices")

	params, ok := httputils.ParseParamsOrReportError(w, r)
	if !ok {
		return
	}

	authClient := auth.Client{Secrets: secrets.Client{}}
	if err := authClient.Check(ctx, httputils.APIKey(params, r)); err != nil {
		httputils.SendErrorResponse(w, r, err)
		return
	}

	logger.Debug("Handling DeleteUnusedDevices request")

	swp, err := sweeper.New(ctx, store.Client{})
	if err != nil {
		httputils.SendErrorResponse(w, r, err)
		return
	}

	if err := swp.Sweep(ctx); err != nil {
		logger.Warnf("Cannot handle DeleteUnusedDevices request: %v", err)
		httputils.SendErrorResponse(w, r, err)
		return
	}

	httputils.SendResult(w, r)
}
