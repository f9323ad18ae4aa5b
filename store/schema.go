package store

// Schema creates the record tables. seq keeps the order records were written in.
// Times are UTC text, utc_offset is the zone offset in seconds they were recorded with.
const Schema = `
CREATE TABLE IF NOT EXISTS cash (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	time TEXT NOT NULL,
	utc_offset INTEGER NOT NULL DEFAULT 0,
	amount TEXT NOT NULL,
	tag TEXT NOT NULL,
	extra TEXT
);

CREATE TABLE IF NOT EXISTS trades (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	time TEXT NOT NULL,
	utc_offset INTEGER NOT NULL DEFAULT 0,
	symbol TEXT NOT NULL,
	mode TEXT NOT NULL,
	quantity TEXT NOT NULL,
	price TEXT NOT NULL,
	tag TEXT NOT NULL,
	extra TEXT
);

CREATE TABLE IF NOT EXISTS funds (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	due TEXT NOT NULL,
	utc_offset INTEGER NOT NULL DEFAULT 0,
	amount TEXT NOT NULL,
	tag TEXT NOT NULL,
	extra TEXT,
	cancelled INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_cash_time ON cash(time);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
`
