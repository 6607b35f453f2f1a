package mail

import (
	"context"
	"fmt"

	"github.com/custodia-labs/m365/odata"
	"github.com/custodia-labs/m365/protocol"
)

// Attachment is a file attached to a message. ContentBytes is populated for
// file attachments fetched individually; list responses omit it.
type Attachment struct {
	ODataType    string `json:"@odata.type,omitempty"`
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	ContentType  string `json:"contentType,omitempty"`
	Size         int    `json:"size,omitempty"`
	IsInline     bool   `json:"isInline,omitempty"`
	ContentBytes []byte `json:"contentBytes,omitempty"`
}

// Attachments pages the attachments of a message.
func (m *Mailbox) Attachments(messageID string, query *odata.Query) *odata.Pager[Attachment] {
	endpoint := fmt.Sprintf("messages/%s/attachments", messageID)
	return odata.NewPager[Attachment](m.Conn, m.BuildURL(endpoint), queryParams(query))
}

// Attachment fetches a single attachment with its content.
func (m *Mailbox) Attachment(ctx context.Context, messageID, attachmentID string) (*Attachment, error) {
	endpoint := fmt.Sprintf("messages/%s/attachments/%s", messageID, attachmentID)

	var attachment Attachment
	if err := m.Conn.Get(ctx, m.BuildURL(endpoint), nil, &attachment); err != nil {
		return nil, fmt.Errorf("get attachment %s: %w", attachmentID, err)
	}
	return &attachment, nil
}

// AttachFile adds a file attachment to a draft message. The content is
// limited to what fits in a single request, around 3 MB.
func (m *Mailbox) AttachFile(ctx context.Context, messageID, name string, content []byte) (*Attachment, error) {
	body := Attachment{
		ODataType:    m.Protocol.Keyword(protocol.KeywordFileAttachmentType),
		Name:         name,
		ContentBytes: content,
	}

	endpoint := fmt.Sprintf("messages/%s/attachments", messageID)
	var created Attachment
	if err := m.Conn.Post(ctx, m.BuildURL(endpoint), body, &created); err != nil {
		return nil, fmt.Errorf("attach file %q: %w", name, err)
	}
	return &created, nil
}

// DeleteAttachment removes an attachment from a draft message.
func (m *Mailbox) DeleteAttachment(ctx context.Context, messageID, attachmentID string) error {
	endpoint := fmt.Sprintf("messages/%s/attachments/%s", messageID, attachmentID)
	if err := m.Conn.Delete(ctx, m.BuildURL(endpoint)); err != nil {
		return fmt.Errorf("delete attachment %s: %w", attachmentID, err)
	}
	return nil
}
