// Package m365 is a client SDK for Microsoft 365 services: mail, calendar,
// OneDrive and the user directory, over Microsoft Graph or the legacy
// Office 365 REST API.
//
// An Account bundles an authenticated connection with a protocol dialect
// and hands out the resource clients:
//
//	account, err := m365.NewAccount(rest.Config{
//		ClientID:     os.Getenv("M365_CLIENT_ID"),
//		ClientSecret: os.Getenv("M365_CLIENT_SECRET"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if !account.IsAuthenticated(ctx) {
//		if err := account.Authenticate(ctx, os.Stdin, os.Stdout); err != nil {
//			log.Fatal(err)
//		}
//	}
//
//	inbox := account.Mailbox("")
//	query := inbox.Query().On("isRead").Equals(false).Top(10)
//	for msg, err := range inbox.Messages(mail.FolderInbox, query).All(ctx) {
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(msg.Subject)
//	}
//
// Tokens persist between runs through the pluggable backends in the auth
// package, from a plain JSON file to SQLite, AWS Secrets Manager or Azure
// Key Vault.
package m365
