package model

import "time"

// Notice is an announcement posted on an event by its host or a member.
type Notice struct {
    ID        uint64    // notices.id
    EventID   uint64    // notices.event_id
    AuthorID  uint64    // notices.author_id
    Content   string    // notices.content
    CreatedAt time.Time // notices.created_at
    UpdatedAt time.Time // notices.updated_at
}
