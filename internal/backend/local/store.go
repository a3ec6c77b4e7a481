package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/slopmail/slopmail/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the local mail cache backed by a SQLite database.
type Store struct {
	db *sqlx.DB
}

// NewStore opens (or creates) a SQLite database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *Store) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// ListAccounts retrieves all accounts ordered by creation time.
func (s *Store) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM accounts ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// GetAccount retrieves a single account by ID.
func (s *Store) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM accounts WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("querying account %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying account %d: %w", id, err)
		}
		return nil, fmt.Errorf("account %d: %w", id, ErrNotFound)
	}

	a, err := scanAccount(rows)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// InsertAccount persists a new account and returns its assigned ID.
func (s *Store) InsertAccount(ctx context.Context, a model.Account) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (
			name, email, protocol,
			imap_server, imap_port, smtp_server, smtp_port, jmap_url,
			username, password_ref, use_ssl,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Name, a.Email, string(a.Protocol),
		a.IMAPServer, a.IMAPPort, a.SMTPServer, a.SMTPPort, a.JMAPURL,
		a.Username, a.PasswordRef, boolToInt(a.UseSSL),
		now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting account %s: %w", a.Email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading account insert id: %w", err)
	}
	return id, nil
}

// SetAccountPasswordRef updates the credential reference of an account.
// The reference can only be computed after the insert assigns an ID.
func (s *Store) SetAccountPasswordRef(ctx context.Context, id int64, ref string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET password_ref = ?, updated_at = ? WHERE id = ?",
		ref, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating password ref for account %d: %w", id, err)
	}
	return nil
}

// ListFolders retrieves all folders of an account.
func (s *Store) ListFolders(ctx context.Context, accountID int64) ([]model.Folder, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM folders WHERE account_id = ? ORDER BY id", accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying folders for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var folders []model.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}

	return folders, rows.Err()
}

// GetFolder retrieves a single folder by ID.
func (s *Store) GetFolder(ctx context.Context, id int64) (*model.Folder, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM folders WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("querying folder %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying folder %d: %w", id, err)
		}
		return nil, fmt.Errorf("folder %d: %w", id, ErrNotFound)
	}

	f, err := scanFolder(rows)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FindFolderByType returns the first folder of the given type for an
// account, or ErrNotFound when the account has none.
func (s *Store) FindFolderByType(
	ctx context.Context,
	accountID int64,
	folderType model.FolderType,
) (*model.Folder, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM folders WHERE account_id = ? AND folder_type = ? ORDER BY id LIMIT 1",
		accountID, string(folderType),
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s folder for account %d: %w", folderType, accountID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying %s folder for account %d: %w", folderType, accountID, err)
		}
		return nil, fmt.Errorf("%s folder for account %d: %w", folderType, accountID, ErrNotFound)
	}

	f, err := scanFolder(rows)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpsertFolder inserts or updates a folder keyed by (account_id, name)
// and returns its ID.
func (s *Store) UpsertFolder(ctx context.Context, f model.Folder) (int64, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO folders (
			account_id, name, display_name, folder_type,
			message_count, unread_count, uid_validity, uid_next,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, name) DO UPDATE SET
			display_name  = excluded.display_name,
			folder_type   = excluded.folder_type,
			message_count = excluded.message_count,
			unread_count  = excluded.unread_count,
			uid_validity  = excluded.uid_validity,
			uid_next      = excluded.uid_next,
			updated_at    = excluded.updated_at`,
		f.AccountID, f.Name, f.DisplayName, string(f.FolderType),
		f.MessageCount, f.UnreadCount, f.UIDValidity, f.UIDNext,
		now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("upserting folder %s: %w", f.Name, err)
	}

	var id int64
	err = s.db.GetContext(ctx, &id,
		"SELECT id FROM folders WHERE account_id = ? AND name = ?",
		f.AccountID, f.Name,
	)
	if err != nil {
		return 0, fmt.Errorf("reading folder id for %s: %w", f.Name, err)
	}
	return id, nil
}

// ListEmails retrieves a page of emails from a folder, newest first.
func (s *Store) ListEmails(
	ctx context.Context,
	accountID, folderID int64,
	limit, offset int,
) ([]model.Email, error) {
	query := "SELECT * FROM emails WHERE account_id = ? AND folder_id = ? ORDER BY internal_date DESC, id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", offset)
	}

	rows, err := s.db.QueryxContext(ctx, query, accountID, folderID)
	if err != nil {
		return nil, fmt.Errorf("querying emails for folder %d: %w", folderID, err)
	}
	defer rows.Close()

	var emails []model.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}

	return emails, rows.Err()
}

// GetEmail retrieves a single email by ID.
func (s *Store) GetEmail(ctx context.Context, id int64) (*model.Email, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM emails WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("querying email %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying email %d: %w", id, err)
		}
		return nil, fmt.Errorf("email %d: %w", id, ErrNotFound)
	}

	e, err := scanEmail(rows)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertEmails inserts or updates a batch of emails keyed by
// (folder_id, message_id).
func (s *Store) UpsertEmails(ctx context.Context, emails []model.Email) error {
	if len(emails) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO emails (
			account_id, folder_id, message_id, thread_id,
			subject, from_address, from_name,
			to_addresses, cc_addresses, bcc_addresses,
			body_text, body_html, attachments, size_bytes,
			internal_date, received_date,
			is_read, is_flagged, is_answered, is_draft, is_deleted,
			uid, mod_seq,
			created_at, updated_at
		) VALUES (
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?,
			?, ?,
			?, ?, ?, ?, ?,
			?, ?,
			?, ?
		)
		ON CONFLICT(folder_id, message_id) DO UPDATE SET
			subject      = excluded.subject,
			body_text    = excluded.body_text,
			body_html    = excluded.body_html,
			attachments  = excluded.attachments,
			is_read      = excluded.is_read,
			is_flagged   = excluded.is_flagged,
			is_answered  = excluded.is_answered,
			is_deleted   = excluded.is_deleted,
			uid          = excluded.uid,
			mod_seq      = excluded.mod_seq,
			updated_at   = excluded.updated_at`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing email upsert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, e := range emails {
		_, err = stmt.ExecContext(ctx,
			e.AccountID, e.FolderID, e.MessageID, e.ThreadID,
			e.Subject, e.FromAddress, e.FromName,
			e.ToAddresses, e.CcAddresses, e.BccAddresses,
			e.BodyText, e.BodyHTML, e.Attachments, e.SizeBytes,
			e.InternalDate.UTC(), e.ReceivedDate.UTC(),
			boolToInt(e.IsRead), boolToInt(e.IsFlagged), boolToInt(e.IsAnswered),
			boolToInt(e.IsDraft), boolToInt(e.IsDeleted),
			e.UID, e.ModSeq,
			now, now,
		)
		if err != nil {
			return fmt.Errorf("upserting email %s: %w", e.MessageID, err)
		}
	}

	return tx.Commit()
}

// MarkEmailRead flags one email as read and decrements its folder's
// unread count. Already-read emails are left untouched.
func (s *Store) MarkEmailRead(ctx context.Context, emailID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var folderID int64
	var isRead int
	err = tx.QueryRowxContext(ctx,
		"SELECT folder_id, is_read FROM emails WHERE id = ?", emailID,
	).Scan(&folderID, &isRead)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("email %d: %w", emailID, ErrNotFound)
		}
		return fmt.Errorf("reading email %d: %w", emailID, err)
	}

	if isRead != 0 {
		return nil
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"UPDATE emails SET is_read = 1, updated_at = ? WHERE id = ?", now, emailID,
	); err != nil {
		return fmt.Errorf("marking email %d read: %w", emailID, err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE folders SET unread_count = MAX(unread_count - 1, 0), updated_at = ? WHERE id = ?",
		now, folderID,
	); err != nil {
		return fmt.Errorf("updating unread count for folder %d: %w", folderID, err)
	}

	return tx.Commit()
}

// RecountFolder recomputes a folder's message and unread counts from
// its stored emails.
func (s *Store) RecountFolder(ctx context.Context, folderID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE folders SET
			message_count = (SELECT COUNT(*) FROM emails WHERE folder_id = ?),
			unread_count  = (SELECT COUNT(*) FROM emails WHERE folder_id = ? AND is_read = 0),
			updated_at    = ?
		WHERE id = ?`,
		folderID, folderID, time.Now().UTC(), folderID,
	)
	if err != nil {
		return fmt.Errorf("recounting folder %d: %w", folderID, err)
	}
	return nil
}

// scanAccount scans an account row from a sqlx.Rows result set.
func scanAccount(rows *sqlx.Rows) (model.Account, error) {
	var (
		a         model.Account
		protocol  string
		useSSL    int
		createdAt time.Time
		updatedAt time.Time
	)

	err := rows.Scan(
		&a.ID, &a.Name, &a.Email, &protocol,
		&a.IMAPServer, &a.IMAPPort, &a.SMTPServer, &a.SMTPPort, &a.JMAPURL,
		&a.Username, &a.PasswordRef, &useSSL,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return model.Account{}, fmt.Errorf("scanning account row: %w", err)
	}

	a.Protocol = model.Protocol(protocol)
	a.UseSSL = useSSL != 0
	a.CreatedAt = createdAt
	a.UpdatedAt = updatedAt

	return a, nil
}

// scanFolder scans a folder row from a sqlx.Rows result set.
func scanFolder(rows *sqlx.Rows) (model.Folder, error) {
	var (
		f          model.Folder
		folderType string
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := rows.Scan(
		&f.ID, &f.AccountID, &f.Name, &f.DisplayName, &folderType,
		&f.MessageCount, &f.UnreadCount, &f.UIDValidity, &f.UIDNext,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return model.Folder{}, fmt.Errorf("scanning folder row: %w", err)
	}

	f.FolderType = model.FolderType(folderType)
	f.CreatedAt = createdAt
	f.UpdatedAt = updatedAt

	return f, nil
}

// scanEmail scans an email row from a sqlx.Rows result set.
func scanEmail(rows *sqlx.Rows) (model.Email, error) {
	var (
		e            model.Email
		isRead       int
		isFlagged    int
		isAnswered   int
		isDraft      int
		isDeleted    int
		internalDate time.Time
		receivedDate time.Time
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := rows.Scan(
		&e.ID, &e.AccountID, &e.FolderID, &e.MessageID, &e.ThreadID,
		&e.Subject, &e.FromAddress, &e.FromName,
		&e.ToAddresses, &e.CcAddresses, &e.BccAddresses,
		&e.BodyText, &e.BodyHTML, &e.Attachments, &e.SizeBytes,
		&internalDate, &receivedDate,
		&isRead, &isFlagged, &isAnswered, &isDraft, &isDeleted,
		&e.UID, &e.ModSeq,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return model.Email{}, fmt.Errorf("scanning email row: %w", err)
	}

	e.IsRead = isRead != 0
	e.IsFlagged = isFlagged != 0
	e.IsAnswered = isAnswered != 0
	e.IsDraft = isDraft != 0
	e.IsDeleted = isDeleted != 0
	e.InternalDate = internalDate
	e.ReceivedDate = receivedDate
	e.CreatedAt = createdAt
	e.UpdatedAt = updatedAt

	return e, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
