package repository

import "multisign-server/internal/model"

// partition : раскладывает приглашения по состояниям, пропуская приглашение skipKey
func partition(invites []model.Invitation, skipKey string) (pending, signed, declined []model.Invitee) {
	pending, signed, declined = []model.Invitee{}, []model.Invitee{}, []model.Invitee{}
	for _, invite := range invites {
		if invite.Key == skipKey {
			continue
		}
		switch {
		case invite.Signed:
			signed = append(signed, invite.Invitee)
		case invite.Declined:
			declined = append(declined, invite.Invitee)
		default:
			pending = append(pending, invite.Invitee)
		}
	}
	return pending, signed, declined
}

// ownedView : представление документа для владельца с агрегированным состоянием
func ownedView(document model.Document, invites []model.Invitation) model.DocumentView {
	model.SortInvitations(invites)
	pending, signed, declined := partition(invites, "")

	state := model.StateLoaded
	switch {
	case len(pending) > 0:
		state = model.StateIncomplete
	case document.SkipFinal:
		state = model.StateSigned
	}

	return model.DocumentView{
		Document: document,
		State:    state,
		Pending:  pending,
		Signed:   signed,
		Declined: declined,
	}
}

// pendingView : представление документа для приглашённого, списки содержат остальных приглашённых
func pendingView(document model.Document, invites []model.Invitation, inviteKey string) model.DocumentView {
	model.SortInvitations(invites)
	pending, signed, declined := partition(invites, inviteKey)

	return model.DocumentView{
		Document:  document,
		InviteKey: inviteKey,
		State:     model.StateUnconfirmed,
		Pending:   pending,
		Signed:    signed,
		Declined:  declined,
	}
}

// uniqueEmails : нормализованные адреса без повторов, в исходном порядке
func uniqueEmails(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, email := range model.NormalizeEmails(emails) {
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out
}
