package domain

import "time"

// Announcement is a broadcast message shown on the home screen, newest
// first.
type Announcement struct {
	ID          string
	Title       string
	Description string
	Priority    string
	Active      bool
	CreatedAt   time.Time
}

// Comment is one reply on a post.
type Comment struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	UserPhoto string    `json:"userPhoto,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post is an attendee's entry in the networking feed. Likes holds the
// emails of users who liked it; liking is a toggle.
type Post struct {
	ID        string
	UserEmail string
	UserName  string
	UserPhoto string
	Caption   string
	PhotoURL  string
	Likes     []string
	Comments  []Comment
	CreatedAt time.Time
}

// Liked reports whether the given user currently likes the post.
func (p *Post) Liked(email string) bool {
	for _, e := range p.Likes {
		if e == email {
			return true
		}
	}
	return false
}
