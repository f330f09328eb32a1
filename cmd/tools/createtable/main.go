// Command createtable creates the MySQL schema. It is idempotent; every
// statement uses CREATE TABLE IF NOT EXISTS.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)      NOT NULL,
		email         VARCHAR(255)  NOT NULL,
		password_hash VARBINARY(72) NOT NULL,
		name          VARCHAR(100)  NOT NULL,
		phone         VARCHAR(32)   NOT NULL DEFAULT '',
		role          VARCHAR(16)   NOT NULL DEFAULT 'member',
		created_at    DATETIME(3)   NOT NULL,
		updated_at    DATETIME(3)   NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY ux_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id           CHAR(36)    NOT NULL,
		user_id      CHAR(36)    NOT NULL,
		expires_at   DATETIME(3) NOT NULL,
		created_at   DATETIME(3) NOT NULL,
		updated_at   DATETIME(3) NOT NULL,
		last_seen_at DATETIME(3) NOT NULL,
		PRIMARY KEY (id),
		KEY ix_sessions_user_id (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS programs (
		id          CHAR(36)     NOT NULL,
		title       VARCHAR(255) NOT NULL,
		slug        VARCHAR(255) NOT NULL,
		description TEXT,
		price       INT          NOT NULL,
		capacity    INT          NOT NULL DEFAULT 0,
		image_url   VARCHAR(512),
		status      VARCHAR(16)  NOT NULL DEFAULT 'draft',
		created_at  DATETIME(3)  NOT NULL,
		updated_at  DATETIME(3)  NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY ux_programs_slug (slug)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS program_participants (
		id             CHAR(36)     NOT NULL,
		program_id     CHAR(36)     NOT NULL,
		user_id        CHAR(36)     NOT NULL,
		order_id       VARCHAR(64)  NOT NULL,
		name           VARCHAR(100) NOT NULL,
		phone          VARCHAR(32)  NOT NULL DEFAULT '',
		email          VARCHAR(255) NOT NULL DEFAULT '',
		note           VARCHAR(255),
		status         VARCHAR(16)  NOT NULL,
		payment_status VARCHAR(16)  NOT NULL,
		created_at     DATETIME(3)  NOT NULL,
		updated_at     DATETIME(3)  NOT NULL,
		PRIMARY KEY (id),
		KEY ix_participants_program_id (program_id),
		KEY ix_participants_user_id (user_id),
		KEY ix_participants_order_id (order_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS payments (
		id           CHAR(36)    NOT NULL,
		order_id     VARCHAR(64) NOT NULL,
		user_id      CHAR(36)    NOT NULL,
		program_id   CHAR(36),
		amount       INT         NOT NULL,
		currency     CHAR(3)     NOT NULL DEFAULT 'KRW',
		status       VARCHAR(16) NOT NULL,
		tid          VARCHAR(64),
		raw_response JSON,
		paid_at      DATETIME(3),
		cancelled_at DATETIME(3),
		created_at   DATETIME(3) NOT NULL,
		updated_at   DATETIME(3) NOT NULL,
		PRIMARY KEY (id),
		KEY ix_payments_order_id (order_id),
		KEY ix_payments_user_id (user_id),
		KEY ix_payments_program_id (program_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refunds (
		id           CHAR(36)     NOT NULL,
		payment_id   CHAR(36)     NOT NULL,
		user_id      CHAR(36)     NOT NULL,
		amount       INT          NOT NULL,
		currency     CHAR(3)      NOT NULL DEFAULT 'KRW',
		reason       VARCHAR(255) NOT NULL,
		cancel_tid   VARCHAR(64),
		raw_response JSON,
		status       VARCHAR(16)  NOT NULL,
		created_at   DATETIME(3)  NOT NULL,
		updated_at   DATETIME(3)  NOT NULL,
		PRIMARY KEY (id),
		KEY ix_refunds_payment_id (payment_id),
		KEY ix_refunds_user_id (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS gateway_events (
		id            CHAR(36)     NOT NULL,
		event_key     VARCHAR(200) NOT NULL,
		order_id      VARCHAR(64)  NOT NULL,
		tid           VARCHAR(64)  NOT NULL,
		status        VARCHAR(32)  NOT NULL,
		payload_json  JSON         NOT NULL,
		received_at   DATETIME(3)  NOT NULL,
		processed_at  DATETIME(3),
		process_error VARCHAR(255),
		PRIMARY KEY (id),
		UNIQUE KEY ux_gateway_events_key (event_key),
		KEY ix_gateway_events_order_id (order_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id         CHAR(36)     NOT NULL,
		user_id    CHAR(36)     NOT NULL,
		type       VARCHAR(32)  NOT NULL,
		title      VARCHAR(255) NOT NULL,
		body       TEXT,
		read_at    DATETIME(3),
		created_at DATETIME(3)  NOT NULL,
		PRIMARY KEY (id),
		KEY ix_notifications_user_id (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping: %v", err)
	}

	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("statement %d: %v", i+1, err)
		}
	}
	fmt.Printf("created %d tables\n", len(statements))
}
