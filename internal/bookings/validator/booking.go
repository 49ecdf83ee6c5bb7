package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"roomkeeper/pkg/logger"
	"roomkeeper/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Stay is a parsed booking request.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("booking_status", validateBookingStatus); err != nil {
		log.Fatal("Failed to register 'booking_status' validator",
			"error", err,
		)
	}

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	return model.BookingStatus(fl.Field().String()).Valid()
}

// ValidateRequest checks the request shape and returns the parsed stay dates.
func (v *BookingValidator) ValidateRequest(req *model.BookingRequest, rule model.OverlapRule) (Stay, error) {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return Stay{}, v.translateValidationErrors(validationErrs)
		}
		return Stay{}, err
	}

	checkIn, err := model.ParseDate(req.CheckInDate)
	if err != nil {
		return Stay{}, ValidationErrors{{Field: "CheckInDate", Message: "check_in_date must be YYYY-MM-DD"}}
	}
	checkOut, err := model.ParseDate(req.CheckOutDate)
	if err != nil {
		return Stay{}, ValidationErrors{{Field: "CheckOutDate", Message: "check_out_date must be YYYY-MM-DD"}}
	}

	if !rule.ValidStay(checkIn, checkOut) {
		message := "check_out_date must not be before check_in_date"
		if rule == model.SameDayTurnover {
			message = "check_out_date must be after check_in_date"
		}
		return Stay{}, ValidationErrors{
			ValidationError{
				Field:   "CheckOutDate",
				Message: message,
			},
		}
	}

	return Stay{CheckIn: checkIn, CheckOut: checkOut}, nil
}

func (v *BookingValidator) ValidateServices(req *model.ServicesRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateReference(req *model.ReferenceRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateStatus(status model.BookingStatus) error {
	if status == "" {
		return nil
	}
	if err := v.validate.Var(string(status), "booking_status"); err != nil {
		return ValidationErrors{
			ValidationError{
				Field:   "Status",
				Message: fmt.Sprintf("Status must be one of: %s %s %s %s", model.StatusBooked, model.StatusCheckedIn, model.StatusCheckedOut, model.StatusCancelled),
			},
		}
	}
	return nil
}

func (v *BookingValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
