package domain

import (
	"errors"
	"testing"
)

func TestAppendCommentThenReply(t *testing.T) {
	t.Parallel()

	var b Blog
	b.AppendComment(Comment{ID: "c1", Text: "hi"})
	if err := b.AppendReply(0, "hey"); err != nil {
		t.Fatalf("AppendReply error: %v", err)
	}

	if len(b.Comments) != 1 {
		t.Fatalf("comments: got %d want 1", len(b.Comments))
	}
	got := b.Comments[0]
	if got.Text != "hi" || len(got.Replies) != 1 || got.Replies[0] != "hey" {
		t.Fatalf("unexpected comment: %+v", got)
	}
}

func TestAppendComment_NilRepliesBecomeEmpty(t *testing.T) {
	t.Parallel()

	var b Blog
	b.AppendComment(Comment{Text: "first"})
	if b.Comments[0].Replies == nil {
		t.Fatalf("expected empty replies slice, got nil")
	}
}

func TestAppendReply_OutOfRangeLeavesBlogUnchanged(t *testing.T) {
	t.Parallel()

	var b Blog
	b.AppendComment(Comment{ID: "c1", Text: "hi"})

	for _, idx := range []int{-1, 1, 42} {
		err := b.AppendReply(idx, "nope")
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("index %d: expected ErrIndexOutOfRange, got %v", idx, err)
		}
	}
	if len(b.Comments[0].Replies) != 0 {
		t.Fatalf("replies changed: %v", b.Comments[0].Replies)
	}
}

func TestAppendReplyTo(t *testing.T) {
	t.Parallel()

	var b Blog
	b.AppendComment(Comment{ID: "a", Text: "one"})
	b.AppendComment(Comment{ID: "b", Text: "two"})

	if err := b.AppendReplyTo("b", "reply"); err != nil {
		t.Fatalf("AppendReplyTo error: %v", err)
	}
	if len(b.Comments[1].Replies) != 1 || len(b.Comments[0].Replies) != 0 {
		t.Fatalf("reply landed on wrong comment: %+v", b.Comments)
	}

	if err := b.AppendReplyTo("missing", "x"); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got %v", err)
	}
}
