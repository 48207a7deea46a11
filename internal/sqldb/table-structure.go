package sqldb

import (
	"context"
	"fmt"
)

func (s *MySql) createTables(ctx context.Context) error {
	tables := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %suser (
			username VARCHAR(64) NOT NULL PRIMARY KEY,
			name VARCHAR(128) NOT NULL DEFAULT '',
			email VARCHAR(128) NOT NULL DEFAULT '',
			token VARCHAR(128) NOT NULL,
			company_id VARCHAR(64) NOT NULL,
			UNIQUE KEY idx_user_token (token)
		) DEFAULT CHARSET=utf8mb4`, s.prefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %sinvoice (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			company_id VARCHAR(64) NOT NULL,
			invoice_number VARCHAR(50) NOT NULL,
			invoice_date VARCHAR(32) NOT NULL DEFAULT '',
			due_date VARCHAR(32) NOT NULL DEFAULT '',
			currency CHAR(3) NOT NULL DEFAULT 'USD',
			customer_name VARCHAR(255) NOT NULL DEFAULT '',
			customer_address VARCHAR(512) NOT NULL DEFAULT '',
			customer_email VARCHAR(128) NOT NULL DEFAULT '',
			customer_country VARCHAR(64) NOT NULL DEFAULT '',
			tax_office VARCHAR(128) NOT NULL DEFAULT '',
			tax_number VARCHAR(64) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL,
			line_items JSON NOT NULL,
			notes TEXT NOT NULL,
			paid TINYINT(1) NOT NULL DEFAULT 0,
			paid_at DATETIME NULL,
			payment_link VARCHAR(1024) NOT NULL DEFAULT '',
			session_id VARCHAR(255) NOT NULL DEFAULT '',
			created DATETIME NOT NULL,
			updated DATETIME NOT NULL,
			KEY idx_invoice_company_status (company_id, status),
			KEY idx_invoice_session (session_id)
		) DEFAULT CHARSET=utf8mb4`, s.prefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %sledger (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			company_id VARCHAR(64) NOT NULL,
			type VARCHAR(10) NOT NULL,
			category VARCHAR(64) NOT NULL,
			amount DECIMAL(15,2) NOT NULL,
			currency CHAR(3) NOT NULL DEFAULT 'USD',
			date VARCHAR(10) NOT NULL,
			description VARCHAR(500) NOT NULL DEFAULT '',
			created DATETIME NOT NULL,
			updated DATETIME NOT NULL,
			KEY idx_ledger_company_date (company_id, date),
			KEY idx_ledger_company_category (company_id, category)
		) DEFAULT CHARSET=utf8mb4`, s.prefix),
	}
	for _, query := range tables {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}
