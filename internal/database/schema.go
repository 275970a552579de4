package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the DDL statements applied by Migrate, in dependency order.
// Every statement is idempotent so Migrate can run on each start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		first_name    VARCHAR(100)    NOT NULL,
		last_name     VARCHAR(100)    NOT NULL,
		sex           VARCHAR(20)     NULL,
		city          VARCHAR(100)    NULL,
		housing       VARCHAR(100)    NULL,
		is_admin      TINYINT(1)      NOT NULL DEFAULT 0,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id         CHAR(36)        NOT NULL,
		user_id    BIGINT UNSIGNED NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_sessions_user (user_id),
		CONSTRAINT fk_sessions_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS movies (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		title        VARCHAR(255)    NOT NULL,
		director     VARCHAR(255)    NOT NULL DEFAULT '',
		cast_members JSON            NULL,
		description  TEXT            NOT NULL,
		duration_min INT             NOT NULL,
		rating       VARCHAR(32)     NOT NULL DEFAULT '',
		poster_url   VARCHAR(512)    NOT NULL DEFAULT '',
		trailer_url  VARCHAR(512)    NULL,
		color        VARCHAR(255)    NULL,
		created_at   DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_movies_title (title),
		CONSTRAINT chk_movies_duration CHECK (duration_min > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS movie_schedules (
		movie_id  BIGINT UNSIGNED NOT NULL,
		weekday   TINYINT         NOT NULL,
		position  TINYINT         NOT NULL,
		show_time CHAR(5)         NOT NULL,
		PRIMARY KEY (movie_id, weekday, position),
		CONSTRAINT fk_schedules_movie FOREIGN KEY (movie_id) REFERENCES movies (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS theatres (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name          VARCHAR(100)    NOT NULL,
		seat_rows     INT             NOT NULL,
		seats_per_row INT             NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_theatres_name (name),
		CONSTRAINT chk_theatres_grid CHECK (seat_rows BETWEEN 1 AND 26 AND seats_per_row > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS showtimes (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		movie_id        BIGINT UNSIGNED NOT NULL,
		show_date       DATE            NOT NULL,
		show_time       CHAR(5)         NOT NULL,
		theatre_id      BIGINT UNSIGNED NOT NULL,
		available_seats INT             NOT NULL,
		created_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_showtimes_slot (show_date, show_time, theatre_id),
		KEY idx_showtimes_movie_date (movie_id, show_date),
		CONSTRAINT fk_showtimes_movie FOREIGN KEY (movie_id) REFERENCES movies (id),
		CONSTRAINT fk_showtimes_theatre FOREIGN KEY (theatre_id) REFERENCES theatres (id),
		CONSTRAINT chk_showtimes_available CHECK (available_seats >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id         BIGINT UNSIGNED NOT NULL,
		movie_title     VARCHAR(255)    NOT NULL,
		show_date       DATE            NOT NULL,
		show_time       CHAR(5)         NOT NULL,
		seat_count      INT             NOT NULL,
		total_price     DECIMAL(10,2)   NOT NULL,
		showtime_id     BIGINT UNSIGNED NULL,
		theatre_id      BIGINT UNSIGNED NULL,
		seat_categories JSON            NULL,
		status          VARCHAR(16)     NOT NULL DEFAULT 'PENDING',
		payment_ref     VARCHAR(64)     NULL,
		created_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_reservations_user (user_id, created_at),
		CONSTRAINT fk_reservations_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_reservations_showtime FOREIGN KEY (showtime_id) REFERENCES showtimes (id) ON DELETE SET NULL,
		CONSTRAINT chk_reservations_seats CHECK (seat_count >= 1)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS seat_bookings (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		reservation_id BIGINT UNSIGNED NOT NULL,
		theatre_id     BIGINT UNSIGNED NOT NULL,
		showtime_id    BIGINT UNSIGNED NOT NULL,
		row_letter     CHAR(1)         NOT NULL,
		seat_number    INT             NOT NULL,
		category       VARCHAR(16)     NOT NULL DEFAULT 'adult',
		price          DECIMAL(10,2)   NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_seat_bookings_seat (showtime_id, row_letter, seat_number),
		KEY idx_seat_bookings_reservation (reservation_id),
		CONSTRAINT fk_seat_bookings_reservation FOREIGN KEY (reservation_id) REFERENCES reservations (id) ON DELETE CASCADE,
		CONSTRAINT fk_seat_bookings_showtime FOREIGN KEY (showtime_id) REFERENCES showtimes (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
