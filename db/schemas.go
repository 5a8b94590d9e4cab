package db

var schema = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

CREATE TABLE IF NOT EXISTS users (
	user_id UUID PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	name VARCHAR(255) NOT NULL,
	phone VARCHAR(64) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tour_events (
	event_id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	title VARCHAR(255) NOT NULL,
	venue VARCHAR(255) NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	price BIGINT NOT NULL,
	currency CHAR(3) NOT NULL,
	capacity INT NOT NULL,
	booking_count INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS bookings (
	booking_id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	event_id UUID NOT NULL,
	quantity INT NOT NULL,
	sub_total BIGINT NOT NULL,
	tax BIGINT NOT NULL DEFAULT 0,
	fees BIGINT NOT NULL DEFAULT 0,
	total BIGINT NOT NULL,
	currency CHAR(3) NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'pending',
	transaction_id UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS payments (
	payment_id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	amount BIGINT NOT NULL,
	currency CHAR(3) NOT NULL,
	provider VARCHAR(32) NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'pending',
	provider_transaction_id VARCHAR(255),
	checkout_url TEXT,
	metadata JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS payment_references (
	reference VARCHAR(255) PRIMARY KEY,
	payment_id UUID NOT NULL,
	booking_id UUID NOT NULL
);

CREATE TABLE IF NOT EXISTS tickets (
	ticket_id UUID PRIMARY KEY,
	booking_id UUID NOT NULL,
	event_id UUID NOT NULL,
	user_id UUID NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'confirmed',
	qr_token VARCHAR(255) NOT NULL UNIQUE,
	qr_image BYTEA,
	used_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS read_model_ops_bookings (
	booking_id UUID PRIMARY KEY,
	payload JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	event_id UUID PRIMARY KEY,
	published_at TIMESTAMPTZ NOT NULL,
	event_name VARCHAR(255) NOT NULL,
	event_payload JSONB NOT NULL
);
`
