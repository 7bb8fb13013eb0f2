package domain

import "time"

// Comment is a note left on a ticket by its owner or assignee.
// Deleted comments stay in storage but are hidden from normal reads.
type Comment struct {
	ID        string
	TicketID  string
	Author    UserRef
	Content   string
	CreatedAt time.Time
	Deleted   bool
}

// CanComment reports whether the user may comment on the ticket.
func CanComment(ticket *Ticket, userID string) bool {
	return ticket.IsOwnedBy(userID) || ticket.IsAssignedTo(userID)
}

// CanDeleteComment reports whether the user may delete the comment.
func CanDeleteComment(comment *Comment, userID string) bool {
	return comment.Author.ID == userID
}
