package client

import (
	"encoding/json"
	"fmt"

	"driftchat/models"
)

func unmarshalPayload(env models.Envelope, v interface{}) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("event %q has no payload", env.Type)
	}
	return json.Unmarshal(env.Payload, v)
}
