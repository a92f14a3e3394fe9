package trackapi

import "github.com/tazhate/trackbot/internal/domain"

type stateRequest struct {
	State domain.TrackingState `json:"state"`
}

type completeRequest struct {
	Value *string `json:"value,omitempty"`
}

type snoozeRequest struct {
	Minutes int `json:"minutes"`
}

// apiError is the body the server sends with 4xx and 5xx responses.
type apiError struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}
