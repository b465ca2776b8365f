package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type RegisterAttendeeRequest struct {
	Name                 string `json:"name"`
	IdentificationNumber string `json:"identification_number"`
	StaffID              string `json:"staff_id"`
	TableNumber          *int   `json:"table_number"`
	SeatNumber           *int   `json:"seat_number"`
	TableAssignment      string `json:"table_assignment"`
}

func (req *RegisterAttendeeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.IdentificationNumber, validation.Required, validation.Length(1, 50)),
		validation.Field(&req.StaffID, validation.Length(0, 50)),
		validation.Field(&req.TableAssignment, validation.Length(0, 100)),
	)
}
