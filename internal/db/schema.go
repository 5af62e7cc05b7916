package db

// Schema defines the SQL statements creating the ledger tables. Amounts are
// stored as exact numerator/denominator integer pairs, never floats. UIDs are
// globally-unique strings used as foreign keys throughout.
const Schema = `
CREATE TABLE IF NOT EXISTS commodities (
    uid TEXT PRIMARY KEY,
    code TEXT NOT NULL,
    symbol TEXT NOT NULL DEFAULT '',
    namespace TEXT NOT NULL,
    smallest_fraction INTEGER NOT NULL,
    UNIQUE(namespace, code)
);

CREATE TABLE IF NOT EXISTS prices (
    uid TEXT PRIMARY KEY,
    commodity_uid TEXT NOT NULL REFERENCES commodities(uid),
    currency_uid TEXT NOT NULL REFERENCES commodities(uid),
    date TIMESTAMP NOT NULL,
    value_num INTEGER NOT NULL,
    value_denom INTEGER NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    UNIQUE(commodity_uid, currency_uid, date)
);

CREATE INDEX IF NOT EXISTS idx_prices_pair_date
    ON prices(commodity_uid, currency_uid, date DESC);

CREATE TABLE IF NOT EXISTS accounts (
    uid TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    full_name TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL,
    commodity_uid TEXT NOT NULL REFERENCES commodities(uid),
    parent_uid TEXT REFERENCES accounts(uid),
    placeholder INTEGER NOT NULL DEFAULT 0,
    hidden INTEGER NOT NULL DEFAULT 0,
    favorite INTEGER NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT '',
    default_transfer_account_uid TEXT,
    balance_num INTEGER,
    balance_denom INTEGER
);

CREATE INDEX IF NOT EXISTS idx_accounts_parent ON accounts(parent_uid);

CREATE TABLE IF NOT EXISTS transactions (
    uid TEXT PRIMARY KEY,
    description TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    timestamp TIMESTAMP NOT NULL,
    commodity_uid TEXT NOT NULL REFERENCES commodities(uid),
    exported INTEGER NOT NULL DEFAULT 0,
    template INTEGER NOT NULL DEFAULT 0,
    scheduled_action_uid TEXT NOT NULL DEFAULT '',
    modified_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_time ON transactions(timestamp);
CREATE INDEX IF NOT EXISTS idx_transactions_modified ON transactions(modified_at);

CREATE TABLE IF NOT EXISTS splits (
    uid TEXT PRIMARY KEY,
    transaction_uid TEXT NOT NULL REFERENCES transactions(uid) ON DELETE CASCADE,
    account_uid TEXT NOT NULL REFERENCES accounts(uid),
    memo TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL,
    value_num INTEGER NOT NULL,
    value_denom INTEGER NOT NULL,
    quantity_num INTEGER NOT NULL,
    quantity_denom INTEGER NOT NULL,
    reconcile_state TEXT NOT NULL DEFAULT 'n',
    reconcile_date TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_splits_transaction ON splits(transaction_uid);
CREATE INDEX IF NOT EXISTS idx_splits_account ON splits(account_uid);

CREATE TABLE IF NOT EXISTS book_settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
