package telegram

import (
	"encoding/json"
	"strings"
)

// Update is one item of the Bot API update stream. Only the fields the
// collector acts on are decoded.
type Update struct {
	UpdateID          int64    `json:"update_id"`
	Message           *Message `json:"message,omitempty"`
	EditedMessage     *Message `json:"edited_message,omitempty"`
	ChannelPost       *Message `json:"channel_post,omitempty"`
	EditedChannelPost *Message `json:"edited_channel_post,omitempty"`
}

// RawUpdate pairs an update's sequence number with its undecoded payload.
type RawUpdate struct {
	UpdateID int64
	Payload  json.RawMessage
}

type Message struct {
	MessageID      int64    `json:"message_id"`
	Date           int64    `json:"date"`
	Chat           *Chat    `json:"chat,omitempty"`
	From           *User    `json:"from,omitempty"`
	SenderChat     *Chat    `json:"sender_chat,omitempty"`
	Text           string   `json:"text,omitempty"`
	Caption        string   `json:"caption,omitempty"`
	NewChatMembers []User   `json:"new_chat_members,omitempty"`
	LeftChatMember *User    `json:"left_chat_member,omitempty"`
	NewChatTitle   string   `json:"new_chat_title,omitempty"`
	PinnedMessage  *Message `json:"pinned_message,omitempty"`

	GroupChatCreated      bool  `json:"group_chat_created,omitempty"`
	SupergroupChatCreated bool  `json:"supergroup_chat_created,omitempty"`
	ChannelChatCreated    bool  `json:"channel_chat_created,omitempty"`
	DeleteChatPhoto       bool  `json:"delete_chat_photo,omitempty"`
	MigrateToChatID       int64 `json:"migrate_to_chat_id,omitempty"`
	MigrateFromChatID     int64 `json:"migrate_from_chat_id,omitempty"`

	// Notification payloads whose contents are never read.
	NewChatPhoto                  json.RawMessage `json:"new_chat_photo,omitempty"`
	MessageAutoDeleteTimerChanged json.RawMessage `json:"message_auto_delete_timer_changed,omitempty"`
	VideoChatScheduled            json.RawMessage `json:"video_chat_scheduled,omitempty"`
	VideoChatStarted              json.RawMessage `json:"video_chat_started,omitempty"`
	VideoChatEnded                json.RawMessage `json:"video_chat_ended,omitempty"`
	VideoChatParticipantsInvited  json.RawMessage `json:"video_chat_participants_invited,omitempty"`
	ForumTopicCreated             json.RawMessage `json:"forum_topic_created,omitempty"`
	ForumTopicEdited              json.RawMessage `json:"forum_topic_edited,omitempty"`
	ForumTopicClosed              json.RawMessage `json:"forum_topic_closed,omitempty"`
	ForumTopicReopened            json.RawMessage `json:"forum_topic_reopened,omitempty"`
}

// TextOrCaption returns the message text, falling back to the media caption.
func (m *Message) TextOrCaption() string {
	if m == nil {
		return ""
	}
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// IsService reports whether the message is a chat notification such as a
// membership change, chat migration or video chat event, rather than
// authored content.
func (m *Message) IsService() bool {
	if m == nil {
		return false
	}
	if len(m.NewChatMembers) > 0 || m.LeftChatMember != nil || m.PinnedMessage != nil {
		return true
	}
	if m.NewChatTitle != "" || len(m.NewChatPhoto) > 0 || m.DeleteChatPhoto {
		return true
	}
	if m.GroupChatCreated || m.SupergroupChatCreated || m.ChannelChatCreated {
		return true
	}
	if m.MigrateToChatID != 0 || m.MigrateFromChatID != 0 {
		return true
	}
	for _, raw := range []json.RawMessage{
		m.MessageAutoDeleteTimerChanged,
		m.VideoChatScheduled,
		m.VideoChatStarted,
		m.VideoChatEnded,
		m.VideoChatParticipantsInvited,
		m.ForumTopicCreated,
		m.ForumTopicEdited,
		m.ForumTopicClosed,
		m.ForumTopicReopened,
	} {
		if len(raw) > 0 {
			return true
		}
	}
	return false
}

type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type,omitempty"` // private|group|supergroup|channel
	Title string `json:"title,omitempty"`
	// Username is set for channels and public groups.
	Username string `json:"username,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	default:
		return strings.TrimSpace(u.Username)
	}
}

type response struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type setWebhookRequest struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

type deleteWebhookRequest struct {
	DropPendingUpdates bool `json:"drop_pending_updates"`
}
