package sessions

import "go-chi-calculator/internal/calculator"

// KeysRequest is the JSON body for POST /calculator/sessions/{id}/keys and
// POST /calculator/evaluate.
type KeysRequest struct {
	Keys []string `json:"keys"` // keypad labels, e.g. "7", "+", "=", "AC"
}

// SessionResponse is the JSON response for session endpoints.
type SessionResponse struct {
	SessionID string          `json:"session_id"`
	View      calculator.View `json:"view"`
}

// EvaluateResponse is the JSON response for POST /calculator/evaluate.
type EvaluateResponse struct {
	Steps []StepResult    `json:"steps"`
	View  calculator.View `json:"view"`
}

// StepResult records the view after one key.
type StepResult struct {
	Key  string          `json:"key"`
	View calculator.View `json:"view"`
}

// KeypadResponse is the JSON response for GET /calculator/keypad.
type KeypadResponse struct {
	Columns int                 `json:"columns"`
	Buttons []calculator.Button `json:"buttons"`
}

// KeyMessage is what a stream client sends for each press.
type KeyMessage struct {
	Key string `json:"key"`
}

// StreamMessage is what the stream pushes back: the view after a press, or
// an error for a press that could not be applied.
type StreamMessage struct {
	SessionID string           `json:"session_id"`
	View      *calculator.View `json:"view,omitempty"`
	Error     string           `json:"error,omitempty"`
}
