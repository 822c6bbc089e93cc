package transport

// Envelope wraps every auth endpoint response, success or failure, so
// clients can branch on status and code without sniffing the payload shape.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess builds a success envelope around the handler payload.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError builds an error envelope. The code mirrors the domain error code
// so clients can distinguish, say, a duplicate account from a validation
// failure without parsing the message.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}
