package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// PlatformSMS marks a device whose token is an E.164 phone number.
const PlatformSMS = "sms"

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

func ValidPhoneNumber(number string) bool {
	return e164.MatchString(number)
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// SMSService delivers notifications as text messages through Twilio.
type SMSService struct {
	api  messageCreator
	from string
}

func NewSMSService(accountSID, authToken, from string) (*SMSService, error) {
	if accountSID == "" || authToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if !ValidPhoneNumber(from) {
		return nil, fmt.Errorf("invalid sender number %q", from)
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMSService{api: client.Api, from: from}, nil
}

// SendPush texts every sms token. Like FCMService it fails only when every
// send failed.
func (s *SMSService) SendPush(ctx context.Context, tokens []DeviceToken, title, body string, data map[string]any) error {
	text := body
	if title != "" {
		text = title + "\n" + body
	}

	var errs []error
	sent := 0
	for _, token := range tokens {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		params := &twilioApi.CreateMessageParams{}
		params.SetTo(token.Token)
		params.SetFrom(s.from)
		params.SetBody(text)

		if _, err := s.api.CreateMessage(params); err != nil {
			log.Printf("SMS: Failed to send to %s: %v", token.Token, err)
			errs = append(errs, err)
			continue
		}
		sent++
	}

	log.Printf("SMS: Sent %d messages, %d failed", sent, len(errs))

	if sent == 0 && len(errs) > 0 {
		return fmt.Errorf("all sms notifications failed: %w", errors.Join(errs...))
	}
	return nil
}
