// Package backend defines the command boundary between the UI and the
// mail engine. The UI issues commands through the Client interface and
// never touches servers or storage directly.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/slopmail/slopmail/internal/model"
)

// AuthError indicates that authentication failed against a mail server.
type AuthError struct {
	Server  string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Server, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ListOptions controls pagination for email list queries. Messages are
// returned newest first.
type ListOptions struct {
	Limit  int
	Offset int
}

// Client is the set of commands the UI can issue. Implementations must
// be safe for concurrent use; the UI fires commands from multiple
// in-flight tea.Cmd goroutines.
type Client interface {
	// GetAccounts returns all configured accounts.
	GetAccounts(ctx context.Context) ([]model.Account, error)

	// GetFolders returns the folders of one account, unsorted.
	GetFolders(ctx context.Context, accountID int64) ([]model.Folder, error)

	// GetEmails returns a page of emails from a folder, newest first.
	GetEmails(ctx context.Context, accountID, folderID int64, opts ListOptions) ([]model.Email, error)

	// MarkEmailRead marks a single email as read.
	MarkEmailRead(ctx context.Context, emailID int64) error

	// SendEmail delivers an outgoing message and returns its Message-ID.
	SendEmail(ctx context.Context, email model.ComposeEmail) (string, error)

	// AddAccount persists a new account and returns it with its assigned ID.
	AddAccount(ctx context.Context, req model.AddAccountRequest) (*model.Account, error)

	// TestAccountConnection verifies connection settings without
	// persisting anything. Returns a human-readable status message on
	// success.
	TestAccountConnection(ctx context.Context, req model.TestAccountRequest) (string, error)
}
