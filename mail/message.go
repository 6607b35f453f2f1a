package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/m365/odata"
)

// EmailAddress is a display name plus address pair.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Recipient wraps an email address the way the service nests it.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// To is a convenience constructor for a bare-address recipient.
func To(address string) Recipient {
	return Recipient{EmailAddress: EmailAddress{Address: address}}
}

// ItemBody is a message or event body with its content type.
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Text returns a plain text body.
func Text(content string) *ItemBody {
	return &ItemBody{ContentType: "text", Content: content}
}

// HTML returns an HTML body.
func HTML(content string) *ItemBody {
	return &ItemBody{ContentType: "html", Content: content}
}

// Message is an email message.
type Message struct {
	ID               string      `json:"id,omitempty"`
	Subject          string      `json:"subject,omitempty"`
	BodyPreview      string      `json:"bodyPreview,omitempty"`
	Body             *ItemBody   `json:"body,omitempty"`
	From             *Recipient  `json:"from,omitempty"`
	ToRecipients     []Recipient `json:"toRecipients,omitempty"`
	CcRecipients     []Recipient `json:"ccRecipients,omitempty"`
	BccRecipients    []Recipient `json:"bccRecipients,omitempty"`
	ReplyTo          []Recipient `json:"replyTo,omitempty"`
	ReceivedDateTime time.Time   `json:"receivedDateTime,omitzero"`
	SentDateTime     time.Time   `json:"sentDateTime,omitzero"`
	IsRead           bool        `json:"isRead,omitempty"`
	IsDraft          bool        `json:"isDraft,omitempty"`
	HasAttachments   bool        `json:"hasAttachments,omitempty"`
	Importance       string      `json:"importance,omitempty"`
	Categories       []string    `json:"categories,omitempty"`
	ConversationID   string      `json:"conversationId,omitempty"`
	ParentFolderID   string      `json:"parentFolderId,omitempty"`
	WebLink          string      `json:"webLink,omitempty"`
}

// MessageUpdate is a partial message for PATCH requests. Only non-nil
// fields are sent, so untouched attributes keep their server-side value.
type MessageUpdate struct {
	Subject      *string      `json:"subject,omitempty"`
	Body         *ItemBody    `json:"body,omitempty"`
	ToRecipients *[]Recipient `json:"toRecipients,omitempty"`
	CcRecipients *[]Recipient `json:"ccRecipients,omitempty"`
	IsRead       *bool        `json:"isRead,omitempty"`
	Importance   *string      `json:"importance,omitempty"`
	Categories   *[]string    `json:"categories,omitempty"`
}

// Messages pages the messages in a folder. An empty folderID lists the
// whole mailbox.
func (m *Mailbox) Messages(folderID string, query *odata.Query) *odata.Pager[Message] {
	endpoint := "messages"
	if folderID != "" {
		endpoint = fmt.Sprintf("mailFolders/%s/messages", folderID)
	}
	return odata.NewPager[Message](m.Conn, m.BuildURL(endpoint), queryParams(query))
}

// Message fetches a single message.
func (m *Mailbox) Message(ctx context.Context, messageID string, query *odata.Query) (*Message, error) {
	var msg Message
	if err := m.Conn.Get(ctx, m.BuildURL("messages/"+messageID), queryParams(query), &msg); err != nil {
		return nil, fmt.Errorf("get message %s: %w", messageID, err)
	}
	return &msg, nil
}

// SendMail sends a message directly without creating a draft first.
func (m *Mailbox) SendMail(ctx context.Context, msg *Message, saveToSentItems bool) error {
	body := map[string]any{
		m.CC("message"):         msg,
		m.CC("saveToSentItems"): saveToSentItems,
	}
	if err := m.Conn.Post(ctx, m.BuildURL("sendMail"), body, nil); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// CreateDraft saves a message to the drafts folder and returns it with its
// server-assigned ID.
func (m *Mailbox) CreateDraft(ctx context.Context, msg *Message) (*Message, error) {
	var created Message
	if err := m.Conn.Post(ctx, m.BuildURL("messages"), msg, &created); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	return &created, nil
}

// UpdateMessage patches a message with the non-nil fields of update.
func (m *Mailbox) UpdateMessage(ctx context.Context, messageID string, update *MessageUpdate) (*Message, error) {
	var msg Message
	if err := m.Conn.Patch(ctx, m.BuildURL("messages/"+messageID), update, &msg); err != nil {
		return nil, fmt.Errorf("update message %s: %w", messageID, err)
	}
	return &msg, nil
}

// MarkRead flags a message as read or unread.
func (m *Mailbox) MarkRead(ctx context.Context, messageID string, read bool) error {
	_, err := m.UpdateMessage(ctx, messageID, &MessageUpdate{IsRead: &read})
	return err
}

// Send sends an existing draft.
func (m *Mailbox) Send(ctx context.Context, messageID string) error {
	if err := m.Conn.Post(ctx, m.BuildURL(fmt.Sprintf("messages/%s/send", messageID)), nil, nil); err != nil {
		return fmt.Errorf("send message %s: %w", messageID, err)
	}
	return nil
}

// Reply sends a reply to the message sender.
func (m *Mailbox) Reply(ctx context.Context, messageID, comment string) error {
	return m.respond(ctx, messageID, "reply", comment, nil)
}

// ReplyAll sends a reply to the sender and all recipients.
func (m *Mailbox) ReplyAll(ctx context.Context, messageID, comment string) error {
	return m.respond(ctx, messageID, "replyAll", comment, nil)
}

// Forward forwards the message to the given recipients.
func (m *Mailbox) Forward(ctx context.Context, messageID, comment string, to []Recipient) error {
	return m.respond(ctx, messageID, "forward", comment, to)
}

func (m *Mailbox) respond(ctx context.Context, messageID, action, comment string, to []Recipient) error {
	body := map[string]any{m.CC("comment"): comment}
	if len(to) > 0 {
		body[m.CC("toRecipients")] = to
	}

	endpoint := fmt.Sprintf("messages/%s/%s", messageID, m.CC(action))
	if err := m.Conn.Post(ctx, m.BuildURL(endpoint), body, nil); err != nil {
		return fmt.Errorf("%s message %s: %w", action, messageID, err)
	}
	return nil
}

// MoveMessage moves a message to another folder and returns the moved copy.
func (m *Mailbox) MoveMessage(ctx context.Context, messageID, folderID string) (*Message, error) {
	return m.messageAction(ctx, messageID, "move", folderID)
}

// CopyMessage copies a message to another folder and returns the copy.
func (m *Mailbox) CopyMessage(ctx context.Context, messageID, folderID string) (*Message, error) {
	return m.messageAction(ctx, messageID, "copy", folderID)
}

func (m *Mailbox) messageAction(ctx context.Context, messageID, action, folderID string) (*Message, error) {
	endpoint := fmt.Sprintf("messages/%s/%s", messageID, action)
	body := map[string]string{m.CC("destinationId"): folderID}

	var msg Message
	if err := m.Conn.Post(ctx, m.BuildURL(endpoint), body, &msg); err != nil {
		return nil, fmt.Errorf("%s message %s: %w", action, messageID, err)
	}
	return &msg, nil
}

// Draft composes a new message bound to a mailbox.
type Draft struct {
	mailbox *Mailbox
	Message Message
}

// NewMessage starts composing a message in the mailbox.
func (m *Mailbox) NewMessage() *Draft {
	return &Draft{mailbox: m}
}

// To adds recipients by address.
func (d *Draft) To(addresses ...string) *Draft {
	for _, address := range addresses {
		d.Message.ToRecipients = append(d.Message.ToRecipients, To(address))
	}
	return d
}

// Cc adds carbon copy recipients by address.
func (d *Draft) Cc(addresses ...string) *Draft {
	for _, address := range addresses {
		d.Message.CcRecipients = append(d.Message.CcRecipients, To(address))
	}
	return d
}

// Bcc adds blind carbon copy recipients by address.
func (d *Draft) Bcc(addresses ...string) *Draft {
	for _, address := range addresses {
		d.Message.BccRecipients = append(d.Message.BccRecipients, To(address))
	}
	return d
}

// Subject sets the message subject.
func (d *Draft) Subject(subject string) *Draft {
	d.Message.Subject = subject
	return d
}

// Body sets the message body.
func (d *Draft) Body(body *ItemBody) *Draft {
	d.Message.Body = body
	return d
}

// Save stores the draft in the drafts folder and returns it with its
// server-assigned ID.
func (d *Draft) Save(ctx context.Context) (*Message, error) {
	return d.mailbox.CreateDraft(ctx, &d.Message)
}

// Send sends the composed message, keeping a copy in sent items.
func (d *Draft) Send(ctx context.Context) error {
	return d.mailbox.SendMail(ctx, &d.Message, true)
}

// DeleteMessage moves a message to the deleted items folder.
func (m *Mailbox) DeleteMessage(ctx context.Context, messageID string) error {
	if err := m.Conn.Delete(ctx, m.BuildURL("messages/"+messageID)); err != nil {
		return fmt.Errorf("delete message %s: %w", messageID, err)
	}
	return nil
}
