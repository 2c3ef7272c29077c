package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-booking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) CreateTicket(ctx context.Context, ticket models.Ticket) error {
	_, err := d.Bun.NewInsert().Model(&ticket).Exec(ctx)
	return err
}

func (d *DB) UpdateTicket(ctx context.Context, ticket models.Ticket) error {
	_, err := d.Bun.NewUpdate().
		Model(&ticket).
		Column("title", "type", "from_location", "to_location", "departure",
			"price", "quantity", "perks", "image", "advertise", "status").
		Where("ticket_id = ?", ticket.TicketID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteTicket(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Ticket)(nil)).
		Where("ticket_id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) ListByStatus(ctx context.Context, status models.TicketStatus) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("status = ?", status).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) ListByVendor(ctx context.Context, vendorEmail string) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("vendor_email = ?", vendorEmail).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) ListAdvertised(ctx context.Context) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("advertise = ?", true).
		Where("status = ?", models.TicketApproved).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// DecrementSeats atomically takes qty seats from a ticket, refusing to go
// below zero. The returned count is the rows affected: zero means another
// booking got there first and the caller must treat the ticket as sold out.
func (d *DB) DecrementSeats(ctx context.Context, id string, qty int) (int64, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("quantity = quantity - ?", qty).
		Where("ticket_id = ?", id).
		Where("quantity >= ?", qty).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnadvertiseVendor withdraws a fraud-flagged vendor's promotion in one
// statement.
func (d *DB) UnadvertiseVendor(ctx context.Context, vendorEmail string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("advertise = ?", false).
		Where("vendor_email = ?", vendorEmail).
		Exec(ctx)
	return err
}

// WithdrawVendorInventory pushes a fraud-flagged vendor's approved tickets
// back to pending so they disappear from sale until re-reviewed.
func (d *DB) WithdrawVendorInventory(ctx context.Context, vendorEmail string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", models.TicketPending).
		Where("vendor_email = ?", vendorEmail).
		Where("status = ?", models.TicketApproved).
		Exec(ctx)
	return err
}
