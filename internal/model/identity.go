package model

import "strings"

// Identity : данные пользователя, полученные от слоя аутентификации.
// Передаётся явно в каждый вызов сервиса.
type Identity struct {
	Eppn         string   `json:"eppn"`
	DisplayName  string   `json:"display_name"`
	Emails       []string `json:"emails"`
	Lang         string   `json:"lang"`
	IdP          string   `json:"idp"`
	AuthnContext string   `json:"authn_context"`
	Organization string   `json:"organization"`
}

// Email : основной адрес (первый в списке)
func (i Identity) Email() string {
	if len(i.Emails) == 0 {
		return ""
	}
	return i.Emails[0]
}

func (i Identity) Owner() Owner {
	return Owner{
		Email: i.Email(),
		Name:  i.DisplayName,
		Lang:  i.Lang,
		Eppn:  i.Eppn,
	}
}

// NormalizeEmail : адреса сравниваются без учёта регистра и пробелов по краям
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeEmails(emails []string) []string {
	normalized := make([]string, 0, len(emails))
	for _, email := range emails {
		normalized = append(normalized, NormalizeEmail(email))
	}
	return normalized
}

func (i Identity) HasEmail(email string) bool {
	for _, e := range i.Emails {
		if NormalizeEmail(e) == NormalizeEmail(email) {
			return true
		}
	}
	return false
}
