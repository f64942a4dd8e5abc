package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
)

// The booking engine owns bookings, coupons and their usage rows.  The
// properties and room_types tables belong to the listing service; they are
// created here only when missing so a fresh database can run end to end.

const mysqlPropertiesSQL = `
CREATE TABLE IF NOT EXISTS properties (
    id            CHAR(36)     NOT NULL PRIMARY KEY,
    host_id       CHAR(36)     NOT NULL,
    name          VARCHAR(255) NOT NULL,
    property_type VARCHAR(64)  NOT NULL,
    location      VARCHAR(255) NOT NULL,
    is_active     TINYINT(1)   NOT NULL DEFAULT 1,
    KEY idx_properties_host (host_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

const mysqlRoomTypesSQL = `
CREATE TABLE IF NOT EXISTS room_types (
    id                       CHAR(36)      NOT NULL PRIMARY KEY,
    property_id              CHAR(36)      NOT NULL,
    name                     VARCHAR(255)  NOT NULL,
    total_rooms              INT           NOT NULL,
    max_adults               INT           NOT NULL,
    max_children             INT           NOT NULL,
    max_guests               INT           NOT NULL,
    base_price               DECIMAL(15,2) NOT NULL,
    weekend_price            DECIMAL(15,2) NULL,
    holiday_price            DECIMAL(15,2) NULL,
    weekly_discount_percent  DECIMAL(5,2)  NOT NULL DEFAULT 0,
    monthly_discount_percent DECIMAL(5,2)  NOT NULL DEFAULT 0,
    currency                 CHAR(3)       NOT NULL,
    is_active                TINYINT(1)    NOT NULL DEFAULT 1,
    CONSTRAINT fk_room_types_property FOREIGN KEY (property_id) REFERENCES properties (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

const mysqlBookingsSQL = `
CREATE TABLE IF NOT EXISTS bookings (
    id                      CHAR(36)      NOT NULL PRIMARY KEY,
    customer_id             CHAR(36)      NOT NULL,
    property_id             CHAR(36)      NOT NULL,
    room_type_id            CHAR(36)      NOT NULL,
    check_in                DATE          NOT NULL,
    check_out               DATE          NOT NULL,
    nights                  INT           NOT NULL,
    adults                  INT           NOT NULL,
    children                INT           NOT NULL,
    rooms_count             INT           NOT NULL,
    guest_name              VARCHAR(255)  NOT NULL,
    guest_email             VARCHAR(255)  NOT NULL,
    guest_phone             VARCHAR(32)   NOT NULL DEFAULT '',
    special_requests        TEXT          NOT NULL,
    room_price              DECIMAL(15,2) NOT NULL,
    discount_percent        DECIMAL(5,2)  NOT NULL,
    discount_amount         DECIMAL(15,2) NOT NULL,
    coupon_discount_percent DECIMAL(5,2)  NOT NULL,
    coupon_discount_amount  DECIMAL(15,2) NOT NULL,
    tax_amount              DECIMAL(15,2) NOT NULL,
    service_fee             DECIMAL(15,2) NOT NULL,
    total_amount            DECIMAL(15,2) NOT NULL,
    currency                CHAR(3)       NOT NULL,
    status                  VARCHAR(16)   NOT NULL,
    payment_status          VARCHAR(16)   NOT NULL,
    cancellation_reason     TEXT          NOT NULL,
    booking_date            DATETIME(6)   NOT NULL,
    confirmed_at            DATETIME(6)   NULL,
    checked_in_at           DATETIME(6)   NULL,
    checked_out_at          DATETIME(6)   NULL,
    cancelled_at            DATETIME(6)   NULL,
    updated_at              DATETIME(6)   NOT NULL,
    KEY idx_bookings_inventory (room_type_id, check_in, check_out),
    KEY idx_bookings_customer (customer_id, booking_date),
    CONSTRAINT fk_bookings_room_type FOREIGN KEY (room_type_id) REFERENCES room_types (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

const mysqlCouponsSQL = `
CREATE TABLE IF NOT EXISTS coupons (
    id                    CHAR(36)      NOT NULL PRIMARY KEY,
    code                  VARCHAR(20)   NOT NULL,
    description           TEXT          NOT NULL,
    discount_type         VARCHAR(16)   NOT NULL,
    discount_value        DECIMAL(15,2) NOT NULL,
    max_discount_amount   DECIMAL(15,2) NULL,
    min_order_amount      DECIMAL(15,2) NOT NULL DEFAULT 0,
    min_nights            INT           NOT NULL DEFAULT 0,
    applicable_days       VARCHAR(64)   NOT NULL DEFAULT 'all',
    applicable_to         VARCHAR(16)   NOT NULL DEFAULT 'all',
    start_date            DATETIME(6)   NOT NULL,
    end_date              DATETIME(6)   NOT NULL,
    max_total_uses        INT           NULL,
    max_uses_per_customer INT           NOT NULL DEFAULT 1,
    used_count            INT           NOT NULL DEFAULT 0,
    is_active             TINYINT(1)    NOT NULL DEFAULT 1,
    is_public             TINYINT(1)    NOT NULL DEFAULT 0,
    is_featured           TINYINT(1)    NOT NULL DEFAULT 0,
    UNIQUE KEY uq_coupons_code (code)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

const mysqlCouponApplicationsSQL = `
CREATE TABLE IF NOT EXISTS coupon_applications (
    coupon_id     CHAR(36)     NOT NULL,
    property_id   CHAR(36)     NULL,
    property_type VARCHAR(64)  NULL,
    location      VARCHAR(255) NULL,
    KEY idx_coupon_applications_coupon (coupon_id),
    CONSTRAINT fk_coupon_applications_coupon FOREIGN KEY (coupon_id) REFERENCES coupons (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

const mysqlCouponUsagesSQL = `
CREATE TABLE IF NOT EXISTS coupon_usages (
    id              CHAR(36)      NOT NULL PRIMARY KEY,
    coupon_id       CHAR(36)      NOT NULL,
    customer_id     CHAR(36)      NOT NULL,
    booking_id      CHAR(36)      NOT NULL,
    discount_amount DECIMAL(15,2) NOT NULL,
    used_at         DATETIME(6)   NOT NULL,
    UNIQUE KEY uq_coupon_usages_booking (booking_id),
    KEY idx_coupon_usages_customer (coupon_id, customer_id),
    CONSTRAINT fk_coupon_usages_coupon FOREIGN KEY (coupon_id) REFERENCES coupons (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

const pgPropertiesSQL = `
CREATE TABLE IF NOT EXISTS properties (
    id            UUID PRIMARY KEY,
    host_id       UUID NOT NULL,
    name          TEXT NOT NULL,
    property_type TEXT NOT NULL,
    location      TEXT NOT NULL,
    is_active     BOOLEAN NOT NULL DEFAULT TRUE
);`

const pgRoomTypesSQL = `
CREATE TABLE IF NOT EXISTS room_types (
    id                       UUID PRIMARY KEY,
    property_id              UUID NOT NULL REFERENCES properties (id),
    name                     TEXT NOT NULL,
    total_rooms              INTEGER NOT NULL,
    max_adults               INTEGER NOT NULL,
    max_children             INTEGER NOT NULL,
    max_guests               INTEGER NOT NULL,
    base_price               NUMERIC(15,2) NOT NULL,
    weekend_price            NUMERIC(15,2),
    holiday_price            NUMERIC(15,2),
    weekly_discount_percent  NUMERIC(5,2) NOT NULL DEFAULT 0,
    monthly_discount_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
    currency                 CHAR(3) NOT NULL,
    is_active                BOOLEAN NOT NULL DEFAULT TRUE
);`

const pgBookingsSQL = `
CREATE TABLE IF NOT EXISTS bookings (
    id                      UUID PRIMARY KEY,
    customer_id             UUID NOT NULL,
    property_id             UUID NOT NULL,
    room_type_id            UUID NOT NULL REFERENCES room_types (id),
    check_in                DATE NOT NULL,
    check_out               DATE NOT NULL,
    nights                  INTEGER NOT NULL,
    adults                  INTEGER NOT NULL,
    children                INTEGER NOT NULL,
    rooms_count             INTEGER NOT NULL,
    guest_name              TEXT NOT NULL,
    guest_email             TEXT NOT NULL,
    guest_phone             TEXT NOT NULL DEFAULT '',
    special_requests        TEXT NOT NULL DEFAULT '',
    room_price              NUMERIC(15,2) NOT NULL,
    discount_percent        NUMERIC(5,2) NOT NULL,
    discount_amount         NUMERIC(15,2) NOT NULL,
    coupon_discount_percent NUMERIC(5,2) NOT NULL,
    coupon_discount_amount  NUMERIC(15,2) NOT NULL,
    tax_amount              NUMERIC(15,2) NOT NULL,
    service_fee             NUMERIC(15,2) NOT NULL,
    total_amount            NUMERIC(15,2) NOT NULL,
    currency                CHAR(3) NOT NULL,
    status                  TEXT NOT NULL,
    payment_status          TEXT NOT NULL,
    cancellation_reason     TEXT NOT NULL DEFAULT '',
    booking_date            TIMESTAMPTZ NOT NULL,
    confirmed_at            TIMESTAMPTZ,
    checked_in_at           TIMESTAMPTZ,
    checked_out_at          TIMESTAMPTZ,
    cancelled_at            TIMESTAMPTZ,
    updated_at              TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bookings_inventory ON bookings (room_type_id, check_in, check_out);
CREATE INDEX IF NOT EXISTS idx_bookings_customer ON bookings (customer_id, booking_date);`

const pgCouponsSQL = `
CREATE TABLE IF NOT EXISTS coupons (
    id                    UUID PRIMARY KEY,
    code                  VARCHAR(20) NOT NULL UNIQUE,
    description           TEXT NOT NULL DEFAULT '',
    discount_type         TEXT NOT NULL,
    discount_value        NUMERIC(15,2) NOT NULL,
    max_discount_amount   NUMERIC(15,2),
    min_order_amount      NUMERIC(15,2) NOT NULL DEFAULT 0,
    min_nights            INTEGER NOT NULL DEFAULT 0,
    applicable_days       TEXT NOT NULL DEFAULT 'all',
    applicable_to         TEXT NOT NULL DEFAULT 'all',
    start_date            TIMESTAMPTZ NOT NULL,
    end_date              TIMESTAMPTZ NOT NULL,
    max_total_uses        INTEGER,
    max_uses_per_customer INTEGER NOT NULL DEFAULT 1,
    used_count            INTEGER NOT NULL DEFAULT 0,
    is_active             BOOLEAN NOT NULL DEFAULT TRUE,
    is_public             BOOLEAN NOT NULL DEFAULT FALSE,
    is_featured           BOOLEAN NOT NULL DEFAULT FALSE
);`

const pgCouponApplicationsSQL = `
CREATE TABLE IF NOT EXISTS coupon_applications (
    coupon_id     UUID NOT NULL REFERENCES coupons (id) ON DELETE CASCADE,
    property_id   UUID,
    property_type TEXT,
    location      TEXT
);
CREATE INDEX IF NOT EXISTS idx_coupon_applications_coupon ON coupon_applications (coupon_id);`

const pgCouponUsagesSQL = `
CREATE TABLE IF NOT EXISTS coupon_usages (
    id              UUID PRIMARY KEY,
    coupon_id       UUID NOT NULL REFERENCES coupons (id),
    customer_id     UUID NOT NULL,
    booking_id      UUID NOT NULL UNIQUE,
    discount_amount NUMERIC(15,2) NOT NULL,
    used_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_coupon_usages_customer ON coupon_usages (coupon_id, customer_id);`

// Statements returns the DDL for a driver in dependency order.
func Statements(driver string) ([]string, error) {
	switch driver {
	case "mysql":
		return []string{
			mysqlPropertiesSQL,
			mysqlRoomTypesSQL,
			mysqlBookingsSQL,
			mysqlCouponsSQL,
			mysqlCouponApplicationsSQL,
			mysqlCouponUsagesSQL,
		}, nil
	case "postgres":
		return []string{
			pgPropertiesSQL,
			pgRoomTypesSQL,
			pgBookingsSQL,
			pgCouponsSQL,
			pgCouponApplicationsSQL,
			pgCouponUsagesSQL,
		}, nil
	}
	return nil, fmt.Errorf("no migrations for driver %q", driver)
}

// RunMigrations creates any missing tables.  Every statement is idempotent.
func RunMigrations(ctx context.Context, db *sql.DB, driver string) error {
	stmts, err := Statements(driver)
	if err != nil {
		return err
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migration %d", i+1)
		}
	}
	return nil
}
