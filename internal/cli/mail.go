package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/m365/mail"
	"github.com/custodia-labs/m365/rest"
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Read mail",
}

var mailFoldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List mail folders",
	RunE:  runMailFolders,
}

var mailListCmd = &cobra.Command{
	Use:   "list [folder]",
	Short: "List messages in a folder",
	Long: `List messages in a folder, newest first. The folder may be a well-known
name (inbox, drafts, sentitems), a display name or a folder ID. Defaults
to the inbox.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMailList,
}

var (
	mailTop    int
	mailUnread bool
)

func runMailFolders(cmd *cobra.Command, _ []string) error {
	account, err := loadAccount()
	if err != nil {
		return err
	}
	mailbox := account.Mailbox("")

	for folder, err := range mailbox.Folders(nil).All(cmd.Context()) {
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-30s %5d messages, %d unread\n",
			folder.DisplayName, folder.TotalItemCount, folder.UnreadItemCount)
	}
	return nil
}

func runMailList(cmd *cobra.Command, args []string) error {
	account, err := loadAccount()
	if err != nil {
		return err
	}
	mailbox := account.Mailbox("")

	folder := mail.FolderInbox
	if len(args) > 0 {
		folder, err = resolveFolder(cmd.Context(), mailbox, args[0])
		if err != nil {
			return err
		}
	}

	query := mailbox.Query().
		Select("subject", "from", "receivedDateTime", "isRead").
		OrderBy("receivedDateTime", false).
		Top(mailTop)
	if mailUnread {
		query = query.On("isRead").Equals(false)
	}

	pager := mailbox.Messages(folder, query).Limit(mailTop)
	for msg, err := range pager.All(cmd.Context()) {
		if err != nil {
			return err
		}
		marker := " "
		if !msg.IsRead {
			marker = "*"
		}
		from := ""
		if msg.From != nil {
			from = msg.From.EmailAddress.Address
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %-30s %s\n",
			marker, msg.ReceivedDateTime.Local().Format("Jan 02 15:04"), from, msg.Subject)
	}
	return nil
}

var wellKnownFolders = map[string]bool{
	mail.FolderInbox:        true,
	mail.FolderDrafts:       true,
	mail.FolderSentItems:    true,
	mail.FolderDeletedItems: true,
	mail.FolderJunk:         true,
	mail.FolderArchive:      true,
	mail.FolderOutbox:       true,
}

// resolveFolder turns a command line folder argument into something the
// messages endpoint accepts. Well-known names and IDs pass through;
// anything else is looked up by display name.
func resolveFolder(ctx context.Context, mailbox *mail.Mailbox, name string) (string, error) {
	if wellKnownFolders[strings.ToLower(name)] {
		return strings.ToLower(name), nil
	}
	folder, err := mailbox.FolderByName(ctx, name)
	if errors.Is(err, rest.ErrNotFound) {
		// No folder with that display name, assume a folder ID.
		return name, nil
	}
	if err != nil {
		return "", err
	}
	return folder.ID, nil
}

func init() {
	mailListCmd.Flags().IntVar(&mailTop, "top", 25, "maximum number of messages")
	mailListCmd.Flags().BoolVar(&mailUnread, "unread", false, "only unread messages")
	mailCmd.AddCommand(mailFoldersCmd, mailListCmd)
	rootCmd.AddCommand(mailCmd)
}
