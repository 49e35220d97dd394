package messaging

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("user is not a conversation participant")
	ErrEmptyMessage         = errors.New("message body is empty")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
)
