package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateEventRequest struct {
	Name     string `json:"name"`
	Date     string `json:"date"` // RFC 3339
	Location string `json:"location"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Date, validation.Required, validation.Date(time.RFC3339)),
		validation.Field(&req.Location, validation.Length(0, 100)),
	)
}
