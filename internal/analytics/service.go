package analytics

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-booking/internal/models"
)

// Service aggregates revenue figures for the vendor dashboard.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// RevenueOverview is the vendor dashboard payload: totals across the
// vendor's sold bookings plus per-day and per-transport breakdowns.
type RevenueOverview struct {
	VendorEmail  string                  `json:"vendor_email"`
	TotalRevenue float64                 `json:"total_revenue"`
	SoldBookings int                     `json:"sold_bookings"`
	SeatsSold    int                     `json:"seats_sold"`
	TicketsAdded int                     `json:"tickets_added"`
	DailySales   []DailySalesMetrics     `json:"daily_sales"`
	SalesByType  []TransportSalesMetrics `json:"sales_by_type"`
}

// DailySalesMetrics contains metrics for a single day.
type DailySalesMetrics struct {
	Date      string  `json:"date"`
	Revenue   float64 `json:"revenue"`
	SeatsSold int     `json:"seats_sold"`
}

// TransportSalesMetrics contains sales metrics for one transport type.
type TransportSalesMetrics struct {
	Type         string  `json:"type"`
	SoldBookings int     `json:"sold_bookings"`
	SeatsSold    int     `json:"seats_sold"`
	Revenue      float64 `json:"revenue"`
}

// VendorOverview returns revenue analytics for one vendor. An empty status
// aggregates every booking; the dashboard passes the sold filter so only
// paid bookings count toward revenue.
func (s *Service) VendorOverview(ctx context.Context, vendorEmail string, status models.BookingStatus) (*RevenueOverview, error) {
	var bookings []models.Booking
	query := s.db.NewSelect().
		Model(&bookings).
		Where("vendor_email = ?", vendorEmail)

	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to load bookings for %s: %w", vendorEmail, err)
	}

	result := &RevenueOverview{
		VendorEmail:  vendorEmail,
		SoldBookings: len(bookings),
	}
	for _, b := range bookings {
		result.TotalRevenue += b.TotalPrice
		result.SeatsSold += b.Quantity
	}

	// Inventory size is independent of the status filter: the dashboard
	// compares sold volume against everything the vendor has listed.
	added, err := s.db.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("vendor_email = ?", vendorEmail).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets for %s: %w", vendorEmail, err)
	}
	result.TicketsAdded = added

	dailySales, err := s.dailySales(ctx, vendorEmail, status)
	if err != nil {
		return nil, err
	}
	result.DailySales = dailySales

	salesByType, err := s.salesByTransport(ctx, vendorEmail, status)
	if err != nil {
		return nil, err
	}
	result.SalesByType = salesByType

	return result, nil
}

func (s *Service) dailySales(ctx context.Context, vendorEmail string, status models.BookingStatus) ([]DailySalesMetrics, error) {
	type dailySalesRaw struct {
		SalesDate    string  `bun:"sales_date"`
		DailyRevenue float64 `bun:"daily_revenue"`
		SeatsSold    int     `bun:"seats_sold"`
	}

	rawSQL := `
		SELECT
			DATE(created_at) AS sales_date,
			SUM(total_price) AS daily_revenue,
			SUM(quantity) AS seats_sold
		FROM bookings
		WHERE vendor_email = ?
	`
	args := []interface{}{vendorEmail}

	if status != "" {
		rawSQL += " AND status = ?"
		args = append(args, string(status))
	}

	rawSQL += `
		GROUP BY DATE(created_at)
		ORDER BY sales_date
	`

	var rows []dailySalesRaw
	if err := s.db.NewRaw(rawSQL, args...).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to load daily sales for %s: %w", vendorEmail, err)
	}

	metrics := make([]DailySalesMetrics, 0, len(rows))
	for _, row := range rows {
		metrics = append(metrics, DailySalesMetrics{
			Date:      row.SalesDate,
			Revenue:   row.DailyRevenue,
			SeatsSold: row.SeatsSold,
		})
	}
	return metrics, nil
}

func (s *Service) salesByTransport(ctx context.Context, vendorEmail string, status models.BookingStatus) ([]TransportSalesMetrics, error) {
	type transportSalesRaw struct {
		TransportType string  `bun:"transport_type"`
		SoldCount     int     `bun:"sold_count"`
		SeatsSold     int     `bun:"seats_sold"`
		TypeRevenue   float64 `bun:"type_revenue"`
	}

	rawSQL := `
		SELECT
			t.type AS transport_type,
			COUNT(b.booking_id) AS sold_count,
			SUM(b.quantity) AS seats_sold,
			SUM(b.total_price) AS type_revenue
		FROM bookings b
		JOIN tickets t ON b.ticket_id = t.ticket_id
		WHERE b.vendor_email = ?
	`
	args := []interface{}{vendorEmail}

	if status != "" {
		rawSQL += " AND b.status = ?"
		args = append(args, string(status))
	}

	rawSQL += `
		GROUP BY t.type
		ORDER BY t.type
	`

	var rows []transportSalesRaw
	if err := s.db.NewRaw(rawSQL, args...).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to load sales by transport for %s: %w", vendorEmail, err)
	}

	metrics := make([]TransportSalesMetrics, 0, len(rows))
	for _, row := range rows {
		metrics = append(metrics, TransportSalesMetrics{
			Type:         row.TransportType,
			SoldBookings: row.SoldCount,
			SeatsSold:    row.SeatsSold,
			Revenue:      row.TypeRevenue,
		})
	}
	return metrics, nil
}
