package local

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL UNIQUE,
	protocol     TEXT NOT NULL DEFAULT 'IMAP' CHECK(protocol IN ('IMAP', 'POP3', 'JMAP')),
	imap_server  TEXT NOT NULL DEFAULT '',
	imap_port    INTEGER NOT NULL DEFAULT 0,
	smtp_server  TEXT NOT NULL DEFAULT '',
	smtp_port    INTEGER NOT NULL DEFAULT 0,
	jmap_url     TEXT NOT NULL DEFAULT '',
	username     TEXT NOT NULL,
	password_ref TEXT NOT NULL DEFAULT '',
	use_ssl      INTEGER NOT NULL DEFAULT 1 CHECK(use_ssl IN (0, 1)),
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS folders (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id    INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	name          TEXT NOT NULL,
	display_name  TEXT NOT NULL,
	folder_type   TEXT NOT NULL DEFAULT 'CUSTOM',
	message_count INTEGER NOT NULL DEFAULT 0,
	unread_count  INTEGER NOT NULL DEFAULT 0,
	uid_validity  INTEGER,
	uid_next      INTEGER,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(account_id, name)
);

CREATE TABLE IF NOT EXISTS emails (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id    INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	folder_id     INTEGER NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
	message_id    TEXT NOT NULL,
	thread_id     TEXT NOT NULL DEFAULT '',
	subject       TEXT NOT NULL DEFAULT '',
	from_address  TEXT NOT NULL DEFAULT '',
	from_name     TEXT NOT NULL DEFAULT '',
	to_addresses  TEXT NOT NULL DEFAULT '',
	cc_addresses  TEXT NOT NULL DEFAULT '',
	bcc_addresses TEXT NOT NULL DEFAULT '',
	body_text     TEXT NOT NULL DEFAULT '',
	body_html     TEXT NOT NULL DEFAULT '',
	attachments   TEXT NOT NULL DEFAULT '',
	size_bytes    INTEGER NOT NULL DEFAULT 0,
	internal_date DATETIME NOT NULL,
	received_date DATETIME NOT NULL,
	is_read       INTEGER NOT NULL DEFAULT 0 CHECK(is_read IN (0, 1)),
	is_flagged    INTEGER NOT NULL DEFAULT 0 CHECK(is_flagged IN (0, 1)),
	is_answered   INTEGER NOT NULL DEFAULT 0 CHECK(is_answered IN (0, 1)),
	is_draft      INTEGER NOT NULL DEFAULT 0 CHECK(is_draft IN (0, 1)),
	is_deleted    INTEGER NOT NULL DEFAULT 0 CHECK(is_deleted IN (0, 1)),
	uid           INTEGER,
	mod_seq       INTEGER,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(folder_id, message_id)
);

CREATE INDEX IF NOT EXISTS idx_folders_account_id ON folders(account_id);
CREATE INDEX IF NOT EXISTS idx_emails_account_id ON emails(account_id);
CREATE INDEX IF NOT EXISTS idx_emails_folder_id ON emails(folder_id);
CREATE INDEX IF NOT EXISTS idx_emails_internal_date ON emails(internal_date);
CREATE INDEX IF NOT EXISTS idx_emails_is_read ON emails(is_read);
CREATE INDEX IF NOT EXISTS idx_emails_message_id ON emails(message_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_emails_folder_date
	ON emails(folder_id, internal_date);

CREATE INDEX IF NOT EXISTS idx_emails_folder_unread
	ON emails(folder_id, is_read);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
