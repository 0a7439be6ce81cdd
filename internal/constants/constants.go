package constants

//CollectionTalks Name of the talks collection.
const CollectionTalks = "talks"

//CollectionUsers Name of the per-talk devices subcollection.
const CollectionUsers = "users"

//TopicDeviceRegistered Name of the topic.
const TopicDeviceRegistered = "device-registered"

//TopicNotificationPublished Name of the topic.
const TopicNotificationPublished = "notification-published"
