package m365

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/m365/calendar"
	"github.com/custodia-labs/m365/directory"
	"github.com/custodia-labs/m365/drive"
	"github.com/custodia-labs/m365/mail"
	"github.com/custodia-labs/m365/odata"
	"github.com/custodia-labs/m365/protocol"
	"github.com/custodia-labs/m365/rest"
)

// Account ties a connection and a protocol dialect together and hands out
// the resource clients.
type Account struct {
	Protocol   *protocol.Protocol
	Connection *rest.Connection

	resource string
}

// Option configures NewAccount.
type Option func(*Account)

// WithProtocol selects the API dialect. Defaults to Microsoft Graph.
func WithProtocol(proto *protocol.Protocol) Option {
	return func(a *Account) { a.Protocol = proto }
}

// WithResource sets the default resource operated on, e.g. "me" or a
// shared mailbox address.
func WithResource(resource string) Option {
	return func(a *Account) { a.resource = resource }
}

// NewAccount builds an account from a connection config. When the config
// carries no scopes, the basic scope helper of the chosen protocol is used.
func NewAccount(cfg rest.Config, opts ...Option) (*Account, error) {
	account := &Account{}
	for _, opt := range opts {
		opt(account)
	}
	if account.Protocol == nil {
		account.Protocol = protocol.MSGraph()
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = account.Protocol.ScopesFor("basic")
	}

	conn, err := rest.NewConnection(cfg)
	if err != nil {
		return nil, err
	}
	account.Connection = conn
	return account, nil
}

// Authenticate runs the authentication flow for the connection. For the
// code flows it prints the consent URL to out and reads the redirected URL
// the user pastes back from in. The non-interactive flows ignore in and out.
func (a *Account) Authenticate(ctx context.Context, in io.Reader, out io.Writer) error {
	req, err := a.Connection.NewAuthRequest()
	if err != nil {
		// Non-interactive flow.
		return a.Connection.Authenticate(ctx)
	}

	fmt.Fprintf(out, "Visit the following URL to authorize this application:\n\n%s\n\n", req.URL)
	fmt.Fprint(out, "Paste the URL you were redirected to: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read redirected URL: %w", err)
	}

	if err := a.Connection.RequestToken(ctx, strings.TrimSpace(line), req); err != nil {
		return err
	}
	fmt.Fprintln(out, "Authentication succeeded.")
	return nil
}

// IsAuthenticated reports whether a usable token is available.
func (a *Account) IsAuthenticated(ctx context.Context) bool {
	return a.Connection.IsAuthenticated(ctx)
}

// SignOut removes the stored token.
func (a *Account) SignOut(ctx context.Context) error {
	return a.Connection.SignOut(ctx)
}

// Query returns an empty query builder for the account's dialect.
func (a *Account) Query() *odata.Query {
	return odata.NewQuery(a.Protocol)
}

// resourceOr returns the explicit resource, falling back to the account's.
func (a *Account) resourceOr(resource string) string {
	if resource != "" {
		return resource
	}
	return a.resource
}

// Mailbox returns a mail client. An empty resource uses the account's
// default; pass an address to reach a shared or delegated mailbox.
func (a *Account) Mailbox(resource string) *mail.Mailbox {
	return mail.New(a.Connection, a.Protocol, a.resourceOr(resource))
}

// NewMessage starts composing a message in the account's default mailbox.
func (a *Account) NewMessage() *mail.Draft {
	return a.Mailbox("").NewMessage()
}

// Schedule returns a calendar client for the given resource.
func (a *Account) Schedule(resource string) *calendar.Schedule {
	return calendar.New(a.Connection, a.Protocol, a.resourceOr(resource))
}

// Storage returns a drive client for the given resource.
func (a *Account) Storage(resource string) *drive.Storage {
	return drive.New(a.Connection, a.Protocol, a.resourceOr(resource))
}

// Directory returns a directory client.
func (a *Account) Directory() *directory.Directory {
	return directory.New(a.Connection, a.Protocol)
}
