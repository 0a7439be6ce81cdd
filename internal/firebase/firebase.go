package firebase

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
)

//FirestoreClient -_-
var FirestoreClient *firestore.Client

//FirebaseMessaging -_-
var FirebaseMessaging *messaging.Client

func init() {
	ctx := context.Background()

	projectID, exists := os.LookupEnv("PROJECT_ID")
	if !exists || projectID == "NOOP" {
		log.Printf("Mocking Firebase")
		return
	}

	conf := &firebase.Config{
		ProjectID: projectID,
	}

	app, err := firebase.NewApp(ctx, conf)
	if err != nil {
		log.Fatalf("firebase.NewApp: %v", err)
	}
	FirestoreClient, err = app.Firestore(ctx)
	if err != nil {
		log.Fatalf("app.Firestore: %v", err)
	}
	FirebaseMessaging, err = app.Messaging(ctx)
	if err != nil {
		log.Fatalf("app.Messaging: %v", err)
	}
}
