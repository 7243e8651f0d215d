package domain

import (
	"github.com/google/uuid"
)

// Channel groups members under one admin. Membership is set at creation
// and mutated only by external collaborators; Messages is append-only.
type Channel struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Admin    string      `json:"admin"`
	Members  []string    `json:"members"`
	Messages []uuid.UUID `json:"messages"`
}

// Audience returns every user a channel message must reach: all members
// except the sender, plus the admin when the admin is not the sender.
// The result contains no duplicates even if the admin is also a member.
func (c Channel) Audience(sender string) []string {
	seen := make(map[string]struct{}, len(c.Members)+1)
	var audience []string
	for _, member := range c.Members {
		if member == sender {
			continue
		}
		if _, ok := seen[member]; ok {
			continue
		}
		seen[member] = struct{}{}
		audience = append(audience, member)
	}
	if c.Admin != sender {
		if _, ok := seen[c.Admin]; !ok {
			audience = append(audience, c.Admin)
		}
	}
	return audience
}
