package storage

import (
	"ms-booking/internal/models"
)

type Store interface {
	// Payment operations. Records are append-only: SavePayment inserts,
	// UpdatePayment only fills in confirmation fields, nothing deletes.
	SavePayment(payment *models.Payment) error
	GetPayment(id string) (*models.Payment, error)
	GetPaymentBySessionID(sessionID string) (*models.Payment, error)
	GetPaymentByBookingID(bookingID string) (*models.Payment, error)
	UpdatePayment(payment *models.Payment) error
	ListPaymentsByBuyer(email string, limit, offset int) ([]*models.Payment, error)

	// Health and maintenance
	Close() error
	HealthCheck() error
}
