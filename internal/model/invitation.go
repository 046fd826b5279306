package model

import "sort"

// Invitee : приглашённый подписант
type Invitee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Lang  string `json:"lang"`
}

type Invitation struct {
	Key         string  `json:"key"`
	DocumentKey string  `json:"doc_key"`
	Invitee     Invitee `json:"user"`
	Order       int     `json:"order"`
	Signed      bool    `json:"signed"`
	Declined    bool    `json:"declined"`
}

// Resolved : приглашение подписано или отклонено
func (i Invitation) Resolved() bool {
	return i.Signed || i.Declined
}

// InvitationResult : результат разрешения приглашения вместе с документом
type InvitationResult struct {
	User     Invitee   `json:"user"`
	Document *Document `json:"document"`
}

// SortInvitations : порядок приглашения, затем порядок создания
func SortInvitations(invites []Invitation) {
	sort.SliceStable(invites, func(i, j int) bool {
		return invites[i].Order < invites[j].Order
	})
}

// NextInLine : true, если inviteKey первое неразрешённое приглашение.
// Исходный срез не меняется.
func NextInLine(invites []Invitation, inviteKey string) bool {
	sorted := append([]Invitation(nil), invites...)
	SortInvitations(sorted)
	for _, invite := range sorted {
		if invite.Resolved() {
			continue
		}
		return invite.Key == inviteKey
	}
	return false
}
