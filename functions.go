package functions

import (
	"github.com/udtalk/push-backend/internal/functions/deleteunuseddevices"
	"github.com/udtalk/push-backend/internal/functions/pushdirect"
	"github.com/udtalk/push-backend/internal/functions/pushnewutterance"
	"github.com/udtalk/push-backend/internal/functions/registerdevice"
	"github.com/udtalk/push-backend/internal/functions/unregisterdevice"
	"github.com/udtalk/push-backend/internal/functions/updatedevicestatus"

	"net/http"
)

// RegisterDevice Registration handler.
func RegisterDevice(w http.ResponseWriter, r *http.Request) {
	registerdevice.RegisterDevice(w, r)
}

// UnregisterDevice Unregistration handler.
func UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	unregisterdevice.UnregisterDevice(w, r)
}

// UpdateDeviceStatus UpdateDeviceStatus handler.
func UpdateDeviceStatus(w http.ResponseWriter, r *http.Request) {
	updatedevicestatus.UpdateDeviceStatus(w, r)
}

// PushNewUtteranceNotification Fan-out handler.
func PushNewUtteranceNotification(w http.ResponseWriter, r *http.Request) {
	pushnewutterance.PushNewUtteranceNotification(w, r)
}

// DeleteUnusedDevices Maintenance handler.
func DeleteUnusedDevices(w http.ResponseWriter, r *http.Request) {
	deleteunuseddevices.DeleteUnusedDevices(w, r)
}

// PushRemoteNotificationDirectly Direct push handler.
func PushRemoteNotificationDirectly(w http.ResponseWriter, r *http.Request) {
	pushdirect.PushRemoteNotificationDirectly(w, r)
}
