package domain

import "time"

// Comment is an immutable note on a task.
type Comment struct {
	ID        string
	TaskID    string
	UserID    string
	Text      string
	CreatedAt time.Time
}

// CommentDetail is a comment with the author identity resolved.
type CommentDetail struct {
	Comment
	AuthorName  string
	AuthorEmail string
}
