package main

import (
	"net/http"

	"github.com/sethvargo/go-signalcontext"

	functions "github.com/udtalk/push-backend"
	"github.com/udtalk/push-backend/internal/apns"
	"github.com/udtalk/push-backend/internal/logging"
	"github.com/udtalk/push-backend/internal/utils"
	httputils "github.com/udtalk/push-backend/internal/utils/http"
	server "github.com/udtalk/push-backend/pkg/httpserver"
)

func main() {

	ctx, done := signalcontext.OnInterrupt()
	defer done()
	defer apns.Shutdown()

	logger := logging.FromContext(ctx)

	serverConfig, err := utils.LoadServerConfig(ctx)
	if err != nil {
		logger.Fatalf("Could not load server config: %v", err)
	}

	timeouts, err := utils.LoadTimeoutsConfig(ctx)
	if err != nil {
		logger.Fatalf("Could not load timeouts config: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/registerDevice", functions.RegisterDevice)
	mux.HandleFunc("/unregisterDevice", functions.UnregisterDevice)
	mux.HandleFunc("/updateDeviceStatus", functions.UpdateDeviceStatus)
	mux.HandleFunc("/pushNewUtteranceNotification", functions.PushNewUtteranceNotification)
	mux.HandleFunc("/deleteUnusedDevices", functions.DeleteUnusedDevices)
	mux.HandleFunc("/pushRemoteNotificationDirectly", functions.PushRemoteNotificationDirectly)

	handler := httputils.WithTraceID(httputils.WithRequestTimeout(timeouts.Request, mux))

	srv, err := server.NewServer(ctx, &server.Config{Port: serverConfig.Port})
	if err != nil {
		logger.Fatalf("server.New: %v", err)
	}
	logger.Infof("listening on :%s", serverConfig.Port)

	if err := srv.ServeHTTPHandler(ctx, handler); err != nil {
		logger.Fatal(err)
	}
}
