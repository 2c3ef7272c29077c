package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

type PostgreSQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgreSQLStoreWithDB creates a new PostgreSQL store using an existing database connection
func NewPostgreSQLStoreWithDB(db *sql.DB, log *logger.Logger) (*PostgreSQLStore, error) {
	log.Info("DATABASE", "Creating payment storage with existing database connection")

	store := &PostgreSQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize payment tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize payment tables: %w", err)
	}

	log.Info("DATABASE", "Payment storage initialized successfully with existing connection")
	return store, nil
}

func NewPostgreSQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*PostgreSQLStore, error) {
	log.LogDatabase("CONNECT", "postgresql", fmt.Sprintf("Connecting to PostgreSQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open PostgreSQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping PostgreSQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgreSQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	log.Info("DATABASE", "Payment storage initialized successfully")
	return store, nil
}

func (s *PostgreSQLStore) initTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS payments (
		payment_id VARCHAR(64) PRIMARY KEY,
		booking_id VARCHAR(64) NOT NULL,
		buyer_email VARCHAR(255) NOT NULL,
		vendor_email VARCHAR(255) NOT NULL,
		status VARCHAR(16) NOT NULL,
		amount NUMERIC(12,2) NOT NULL,
		session_id VARCHAR(255) NOT NULL,
		transaction_id VARCHAR(255),
		created_date TIMESTAMPTZ NOT NULL,
		updated_date TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_payments_session ON payments (session_id);
	CREATE INDEX IF NOT EXISTS idx_payments_buyer ON payments (buyer_email);
	CREATE INDEX IF NOT EXISTS idx_payments_booking ON payments (booking_id);`

	_, err := s.db.Exec(query)
	return err
}

func (s *PostgreSQLStore) SavePayment(payment *models.Payment) error {
	query := `
	INSERT INTO payments (payment_id, booking_id, buyer_email, vendor_email, status, amount, session_id, transaction_id, created_date, updated_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)`

	_, err := s.db.Exec(query,
		payment.PaymentID, payment.BookingID, payment.BuyerEmail, payment.VendorEmail,
		payment.Status, payment.Amount, payment.SessionID, payment.TransactionID,
		payment.CreatedDate, payment.UpdatedDate)
	if err != nil {
		return fmt.Errorf("failed to save payment %s: %w", payment.PaymentID, err)
	}

	s.log.LogDatabase("INSERT", "payments", fmt.Sprintf("payment %s saved for booking %s", payment.PaymentID, payment.BookingID))
	return nil
}

func (s *PostgreSQLStore) scanPayment(row *sql.Row) (*models.Payment, error) {
	var p models.Payment
	var transactionID sql.NullString
	var updatedDate sql.NullTime

	err := row.Scan(&p.PaymentID, &p.BookingID, &p.BuyerEmail, &p.VendorEmail,
		&p.Status, &p.Amount, &p.SessionID, &transactionID, &p.CreatedDate, &updatedDate)
	if err != nil {
		return nil, err
	}

	if transactionID.Valid {
		p.TransactionID = transactionID.String
	}
	if updatedDate.Valid {
		p.UpdatedDate = updatedDate.Time
	}
	return &p, nil
}

const paymentColumns = `payment_id, booking_id, buyer_email, vendor_email, status, amount, session_id, transaction_id, created_date, updated_date`

func (s *PostgreSQLStore) GetPayment(id string) (*models.Payment, error) {
	row := s.db.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, id)
	payment, err := s.scanPayment(row)
	if err != nil {
		return nil, fmt.Errorf("payment %s not found: %w", id, err)
	}
	return payment, nil
}

func (s *PostgreSQLStore) GetPaymentBySessionID(sessionID string) (*models.Payment, error) {
	row := s.db.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE session_id = $1`, sessionID)
	payment, err := s.scanPayment(row)
	if err != nil {
		return nil, fmt.Errorf("payment for session %s not found: %w", sessionID, err)
	}
	return payment, nil
}

func (s *PostgreSQLStore) GetPaymentByBookingID(bookingID string) (*models.Payment, error) {
	row := s.db.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 ORDER BY created_date DESC LIMIT 1`, bookingID)
	payment, err := s.scanPayment(row)
	if err != nil {
		return nil, fmt.Errorf("payment for booking %s not found: %w", bookingID, err)
	}
	return payment, nil
}

func (s *PostgreSQLStore) UpdatePayment(payment *models.Payment) error {
	query := `
	UPDATE payments
	SET status = $2, transaction_id = NULLIF($3, ''), updated_date = $4
	WHERE payment_id = $1`

	res, err := s.db.Exec(query, payment.PaymentID, payment.Status, payment.TransactionID, payment.UpdatedDate)
	if err != nil {
		return fmt.Errorf("failed to update payment %s: %w", payment.PaymentID, err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("payment %s not found", payment.PaymentID)
	}

	s.log.LogDatabase("UPDATE", "payments", fmt.Sprintf("payment %s updated to %s", payment.PaymentID, payment.Status))
	return nil
}

func (s *PostgreSQLStore) ListPaymentsByBuyer(email string, limit, offset int) ([]*models.Payment, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`SELECT `+paymentColumns+` FROM payments WHERE buyer_email = $1 ORDER BY created_date DESC LIMIT $2 OFFSET $3`,
		email, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for %s: %w", email, err)
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		var p models.Payment
		var transactionID sql.NullString
		var updatedDate sql.NullTime

		err := rows.Scan(&p.PaymentID, &p.BookingID, &p.BuyerEmail, &p.VendorEmail,
			&p.Status, &p.Amount, &p.SessionID, &transactionID, &p.CreatedDate, &updatedDate)
		if err != nil {
			return nil, err
		}

		if transactionID.Valid {
			p.TransactionID = transactionID.String
		}
		if updatedDate.Valid {
			p.UpdatedDate = updatedDate.Time
		}
		payments = append(payments, &p)
	}

	return payments, rows.Err()
}

func (s *PostgreSQLStore) Close() error {
	return s.db.Close()
}

func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}
