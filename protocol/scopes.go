package protocol

// scope is one OAuth scope inside a helper set. Reserved scopes
// (offline_access, openid) are never prefixed with the dialect URL.
type scope struct {
	name     string
	reserved bool
}

func raw(name string) scope      { return scope{name: name, reserved: true} }
func prefixed(name string) scope { return scope{name: name} }

// defaultScopeSets maps scope helper names to the scopes they require.
// Helper names let callers ask for capabilities ("mailbox", "calendar_all")
// without memorising the Microsoft scope strings.
var defaultScopeSets = map[string][]scope{
	"basic":                   {raw("offline_access"), prefixed("User.Read")},
	"mailbox":                 {prefixed("Mail.Read")},
	"mailbox_shared":          {prefixed("Mail.Read.Shared")},
	"message_send":            {prefixed("Mail.Send")},
	"message_send_shared":     {prefixed("Mail.Send.Shared")},
	"message_all":             {prefixed("Mail.ReadWrite"), prefixed("Mail.Send")},
	"message_all_shared":      {prefixed("Mail.ReadWrite.Shared"), prefixed("Mail.Send.Shared")},
	"address_book":            {prefixed("Contacts.Read")},
	"address_book_shared":     {prefixed("Contacts.Read.Shared")},
	"address_book_all":        {prefixed("Contacts.ReadWrite")},
	"address_book_all_shared": {prefixed("Contacts.ReadWrite.Shared")},
	"calendar":                {prefixed("Calendars.Read")},
	"calendar_shared":         {prefixed("Calendars.Read.Shared")},
	"calendar_all":            {prefixed("Calendars.ReadWrite")},
	"calendar_shared_all":     {prefixed("Calendars.ReadWrite.Shared")},
	"users":                   {prefixed("User.ReadBasic.All")},
	"onedrive":                {prefixed("Files.Read.All")},
	"onedrive_all":            {prefixed("Files.ReadWrite.All")},
	"sharepoint":              {prefixed("Sites.Read.All")},
	"sharepoint_dl":           {prefixed("Sites.ReadWrite.All")},
	"settings_all":            {prefixed("MailboxSettings.ReadWrite")},
	"tasks":                   {prefixed("Tasks.Read")},
	"tasks_all":               {prefixed("Tasks.ReadWrite")},
	"presence":                {prefixed("Presence.Read")},
}

// scopeSetNames lists the helper names in a stable order, used when a caller
// asks for every scope.
var scopeSetNames = []string{
	"basic",
	"mailbox", "mailbox_shared",
	"message_send", "message_send_shared",
	"message_all", "message_all_shared",
	"address_book", "address_book_shared",
	"address_book_all", "address_book_all_shared",
	"calendar", "calendar_shared",
	"calendar_all", "calendar_shared_all",
	"users",
	"onedrive", "onedrive_all",
	"sharepoint", "sharepoint_dl",
	"settings_all",
	"tasks", "tasks_all",
	"presence",
}
