package firebaseapp

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"glowRoutineAPI/internal/config"
)

// New initializes the Firebase app shared by Firestore, FCM and auth. It
// first uses the base64 encoded service account from FCM_SERVICE_ACCOUNT_JSON
// and falls back to the local credentials file.
func New(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	opt, err := credentials(cfg)
	if err != nil {
		return nil, err
	}

	var appConfig *firebase.Config
	if cfg.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}
	return app, nil
}

func credentials(cfg config.FirebaseConfig) (option.ClientOption, error) {
	if cfg.CredentialsB64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(cfg.CredentialsB64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials from FCM_SERVICE_ACCOUNT_JSON: %v", err)
		}
		log.Println("Firebase: Initializing from FCM_SERVICE_ACCOUNT_JSON environment variable.")
		return option.WithCredentialsJSON(decoded), nil
	}

	if _, err := os.Stat(cfg.CredentialsFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("local firebase file not found: %s, and FCM_SERVICE_ACCOUNT_JSON environment variable is not set", cfg.CredentialsFile)
	}
	log.Printf("Firebase: Initializing from local file: %s.", cfg.CredentialsFile)
	return option.WithCredentialsFile(cfg.CredentialsFile), nil
}
