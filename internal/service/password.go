package service

import "github.com/linkforge/linkforge/internal/models"

// passwordGate compares a candidate password against the link's stored one.
// Links store their password in plaintext and the comparison is direct
// string equality, with no throttling or attempt counting. The comparison
// lives behind this type so a hashed or rate-limited scheme can replace it
// without changing the resolution flow, but swapping it would break links
// whose plaintext passwords are already stored.
type passwordGate struct{}

func (passwordGate) verify(link *models.Link, candidate string) bool {
	return link.Password != nil && *link.Password == candidate
}
