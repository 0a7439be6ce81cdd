package pubsub

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"cloud.google.com/go/pubsub"
)

//PubSubClient -_-
var PubSubClient *pubsub.Client

func init() {
	ctx := context.Background()

	projectID, exists := os.LookupEnv("PROJECT_ID")
	if !exists || projectID == "NOOP" {
		log.Printf("Mocking PubSub")
		return
	}

	var err error
	PubSubClient, err = pubsub.NewClient(ctx, projectID)
	if err != nil {
		log.Fatalf("pubsub.NewClient: %v", err)
	}
}

//DeviceRegisteredEvent Payload of the device-registered topic.
type DeviceRegisteredEvent struct {
	TalkID string `json:"talkId"`
	UserID string `json:"userId"`
	Type   string `json:"type"`
}

//NotificationPublishedEvent Payload of the notification-published topic.
type NotificationPublishedEvent struct {
	TalkID     string `json:"talkId"`
	UserID     string `json:"userId"`
	Dispatched int    `json:"dispatched"`
	Forced     bool   `json:"forced"`
}

//EventPublisher is an abstraction over PubSub
type EventPublisher interface {
	Publish(topic string, msg interface{}) error
}

//Client Real PubSub client.
type Client struct{}

//Publish Publish message to some topic.
func (c Client) Publish(topic string, msg interface{}) error {
	if PubSubClient == nil {
		return nil
	}

	var t = PubSubClient.Topic(topic)
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	result := t.Publish(context.Background(), &pubsub.Message{Data: payload})

	// The Get method blocks until a server-generated ID or
	// an error is returned for the published message.
	_, err = result.Get(context.Background())
	return err
}

//MockClient NOOP PubSub client.
type MockClient struct{}

//Publish Publish message to some topic.
func (c MockClient) Publish(topic string, msg interface{}) error {
	return nil
}
