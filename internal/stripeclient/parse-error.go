package stripeclient

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
)

type stripeErrorRaw struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param"`
}

// parseErr shortens stripe API errors to status, parameter and message.
func parseErr(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return formatErr(se.HTTPStatusCode, se.Param, se.Msg)
	}
	var raw stripeErrorRaw
	if e := json.Unmarshal([]byte(err.Error()), &raw); e != nil || raw.Message == "" {
		return err
	}
	return formatErr(raw.Status, raw.Param, raw.Message)
}

func formatErr(status int, param, message string) error {
	if param != "" {
		return fmt.Errorf("stripe status %d: %s: %s", status, param, message)
	}
	return fmt.Errorf("stripe status %d: %s", status, message)
}
