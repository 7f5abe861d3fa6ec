package view

// Response is the envelope of every JSON API answer.
type Response[T any] struct {
	Data    T           `json:"data"`
	Error   string      `json:"error,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
	Message string      `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// CreateResponse builds the envelope. payload echoes the request back on
// failures so callers can see what was rejected.
func CreateResponse[T any](data T, err error, payload interface{}, message string) Response[T] {
	resp := Response[T]{
		Data:    data,
		Payload: payload,
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}

	return resp
}
