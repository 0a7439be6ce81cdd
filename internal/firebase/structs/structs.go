package structs

//Device types as the clients report them.
const (
	TypeIOS           = "iOS"
	TypeWatchOS       = "watchOS"
	TypeWatchOSViaIOS = "watchOS_via_iOS"
	TypeAndroid       = "Android"
)

//EnvProduction Value of the env attribute selecting the APNs production gateway.
const EnvProduction = "pro"

//Talk DB entity for a talk. It exists only while at least one device is registered;
//UserCount is a denormalized counter repaired by the sweeper.
type Talk struct {
	UserCount int `firestore:"userCount" json:"userCount"`
}

//Device DB entity for a device registration, keyed by (talkId, userId).
type Device struct {
	UserID               string `firestore:"userId" json:"userId"`
	DeviceToken          string `firestore:"deviceToken" json:"deviceToken"`
	Type                 string `firestore:"type" json:"type"`
	Env                  string `firestore:"env" json:"env"`
	LanguageCode         string `firestore:"languageCode" json:"languageCode"`
	Timestamp            int64  `firestore:"timestamp" json:"timestamp"`
	LastPublishTimestamp int64  `firestore:"lastPublishTimestamp" json:"lastPublishTimestamp"`

	// Attrs carries client-supplied fields that are persisted as-is but have no
	// meaning to the server. Known fields always win over Attrs entries.
	Attrs map[string]string `firestore:"-" json:"-"`
}

//IsApple Reports whether the device is routed through APNs.
func (d *Device) IsApple() bool {
	return d.Type == TypeIOS || d.Type == TypeWatchOS || d.Type == TypeWatchOSViaIOS
}

//IsWatch Reports whether the device is a watch variant.
func (d *Device) IsWatch() bool {
	return d.Type == TypeWatchOS || d.Type == TypeWatchOSViaIOS
}

//Fields Flattens the device into a Firestore document, Attrs first so that
//known fields override them.
func (d *Device) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(d.Attrs)+7)
	for k, v := range d.Attrs {
		fields[k] = v
	}

	fields["userId"] = d.UserID
	fields["deviceToken"] = d.DeviceToken
	fields["type"] = d.Type
	fields["env"] = d.Env
	fields["languageCode"] = d.LanguageCode
	fields["timestamp"] = d.Timestamp
	fields["lastPublishTimestamp"] = d.LastPublishTimestamp

	return fields
}
