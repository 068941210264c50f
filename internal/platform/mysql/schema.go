package mysql

// Keys compare byte for byte like the other backends, so transaction numbers
// and account paths differing only in case or accents stay distinct.
const tableOptions = "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS import_sources (
		source_id  VARCHAR(64)  NOT NULL PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		provider   VARCHAR(64)  NOT NULL DEFAULT '',
		created_at DATETIME(6)  NOT NULL
	) ` + tableOptions,

	`CREATE TABLE IF NOT EXISTS import_rules (
		source_id              VARCHAR(64)    NOT NULL,
		rule_id                VARCHAR(32)    NOT NULL,
		name                   VARCHAR(255)   NOT NULL DEFAULT '',
		priority               INT            NOT NULL,
		enabled                BOOLEAN        NOT NULL,
		type_pattern           VARCHAR(512)   NOT NULL DEFAULT '',
		category_pattern       VARCHAR(512)   NOT NULL DEFAULT '',
		counterparty_pattern   VARCHAR(512)   NOT NULL DEFAULT '',
		description_pattern    VARCHAR(512)   NOT NULL DEFAULT '',
		status_pattern         VARCHAR(512)   NOT NULL DEFAULT '',
		payment_method_pattern VARCHAR(512)   NOT NULL DEFAULT '',
		min_amount             DECIMAL(24, 8) NULL,
		max_amount             DECIMAL(24, 8) NULL,
		time_pattern           VARCHAR(16)    NOT NULL DEFAULT '',
		target_account         VARCHAR(512)   NOT NULL DEFAULT '',
		method_account         VARCHAR(512)   NOT NULL DEFAULT '',
		created_at             DATETIME(6)    NOT NULL,
		updated_at             DATETIME(6)    NOT NULL,
		PRIMARY KEY (source_id, rule_id)
	) ` + tableOptions,

	`CREATE TABLE IF NOT EXISTS raw_transactions (
		source_id        VARCHAR(64)  NOT NULL,
		transaction_no   VARCHAR(128) NOT NULL,
		payload          MEDIUMTEXT   NOT NULL,
		transaction_time DATETIME(6)  NOT NULL,
		imported_at      DATETIME(6)  NOT NULL,
		transaction_id   VARCHAR(32)  NULL,
		target_account   VARCHAR(512) NULL,
		method_account   VARCHAR(512) NULL,
		linked_at        DATETIME(6)  NULL,
		PRIMARY KEY (source_id, transaction_no),
		KEY idx_raw_unlinked (transaction_id, transaction_time)
	) ` + tableOptions,

	`CREATE TABLE IF NOT EXISTS accounts (
		path         VARCHAR(512) NOT NULL PRIMARY KEY,
		name         VARCHAR(255) NOT NULL,
		account_type VARCHAR(16)  NOT NULL,
		parent_path  VARCHAR(512) NOT NULL DEFAULT '',
		currency     VARCHAR(8)   NOT NULL,
		created_at   DATETIME(6)  NOT NULL
	) ` + tableOptions,

	`CREATE TABLE IF NOT EXISTS transactions (
		transaction_id VARCHAR(32)  NOT NULL PRIMARY KEY,
		kind           VARCHAR(16)  NOT NULL,
		tx_date        DATETIME(6)  NOT NULL,
		payee          VARCHAR(255) NOT NULL DEFAULT '',
		narration      TEXT         NOT NULL,
		tags           TEXT         NOT NULL,
		created_at     DATETIME(6)  NOT NULL
	) ` + tableOptions,

	`CREATE TABLE IF NOT EXISTS postings (
		posting_id     VARCHAR(32)    NOT NULL PRIMARY KEY,
		transaction_id VARCHAR(32)    NOT NULL,
		seq            INT            NOT NULL,
		account_path   VARCHAR(512)   NOT NULL,
		amount         DECIMAL(24, 8) NOT NULL,
		currency       VARCHAR(8)     NOT NULL,
		KEY idx_postings_account (account_path),
		KEY idx_postings_transaction (transaction_id, seq)
	) ` + tableOptions,
}
