package boundary

import (
	"context"
	"errors"

	"roomkeeper/pkg/actor"
	apperrors "roomkeeper/pkg/errors"
	"roomkeeper/pkg/kafka"
	"roomkeeper/pkg/logger"
	"roomkeeper/pkg/model"
)

// ReferenceAttacher records collaborator references on bookings.
type ReferenceAttacher interface {
	AttachPayment(ctx context.Context, a actor.Actor, id string, paymentRef string) (*model.Booking, error)
	AttachInvoice(ctx context.Context, a actor.Actor, id string, invoiceRef string) (*model.Booking, error)
}

// PaymentCompletedHandler consumes payment-completed events.
func PaymentCompletedHandler(attacher ReferenceAttacher, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event model.PaymentCompleted
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("malformed payment-completed event", err)
		}

		_, err := attacher.AttachPayment(ctx, actor.System(), event.BookingID, event.PaymentRef)
		if err != nil {
			return classify("attach payment", err)
		}

		log.Info("Payment attached to booking", "booking_id", event.BookingID, "event_id", msg.GetEventID())
		return nil
	}
}

// InvoiceIssuedHandler consumes invoice-issued events.
func InvoiceIssuedHandler(attacher ReferenceAttacher, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event model.InvoiceIssued
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("malformed invoice-issued event", err)
		}

		_, err := attacher.AttachInvoice(ctx, actor.System(), event.BookingID, event.InvoiceRef)
		if err != nil {
			return classify("attach invoice", err)
		}

		log.Info("Invoice attached to booking", "booking_id", event.BookingID, "event_id", msg.GetEventID())
		return nil
	}
}

// classify maps service outcomes onto consumer retry semantics: anything the
// caller got wrong is permanent, anything else may succeed on retry.
func classify(op string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.CodeNotFound, apperrors.CodeValidation, apperrors.CodeInvalidInput, apperrors.CodeForbidden, apperrors.CodeConflict:
			return kafka.NewPermanentError(op, err)
		}
	}
	return kafka.NewTransientError(op, err)
}
