package domain

import (
	"errors"
	"time"
)

var (
	// ErrIndexOutOfRange is returned when a comment position does not address an existing comment.
	ErrIndexOutOfRange = errors.New("comment index out of range")
	// ErrCommentNotFound is returned when no comment carries the requested ID.
	ErrCommentNotFound = errors.New("comment not found")
)

// Blog is a post owned by a user and carrying its own comment thread.
type Blog struct {
	ID          string
	Title       string
	Description string
	Image       string
	CreatedBy   string
	Comments    []Comment
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Comment is embedded in a Blog. Replies are plain strings in insertion order.
type Comment struct {
	ID        string
	Text      string
	Replies   []string
	CreatedAt time.Time
}

// AppendComment adds a comment with no replies to the end of the thread.
func (b *Blog) AppendComment(c Comment) {
	if c.Replies == nil {
		c.Replies = []string{}
	}
	b.Comments = append(b.Comments, c)
}

// AppendReply adds reply to the comment at position index.
func (b *Blog) AppendReply(index int, reply string) error {
	if index < 0 || index >= len(b.Comments) {
		return ErrIndexOutOfRange
	}
	b.Comments[index].Replies = append(b.Comments[index].Replies, reply)
	return nil
}

// AppendReplyTo adds reply to the comment identified by commentID.
func (b *Blog) AppendReplyTo(commentID, reply string) error {
	for i := range b.Comments {
		if b.Comments[i].ID == commentID {
			b.Comments[i].Replies = append(b.Comments[i].Replies, reply)
			return nil
		}
	}
	return ErrCommentNotFound
}
