package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// CheckInRequest carries one scanned or manually typed payload.
type CheckInRequest struct {
	Payload string `json:"payload"`
}

func (req *CheckInRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Payload, validation.Required, validation.Length(1, 500)),
	)
}
