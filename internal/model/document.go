package model

import "time"

// AcceptedMimeType : единственный тип документов, принимаемый к подписанию
const AcceptedMimeType = "application/pdf"

// Состояния документа в представлениях
const (
	StateIncomplete  = "incomplete"
	StateSigned      = "signed"
	StateLoaded      = "loaded"
	StateUnconfirmed = "unconfirmed"
)

// Owner : владелец документа
type Owner struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Lang  string `json:"lang"`
	Eppn  string `json:"eppn"`
}

type Document struct {
	// ID внутренний идентификатор хранилища, наружу не отдаётся
	ID             int64     `json:"-"`
	Key            string    `json:"key"`
	Name           string    `json:"name"`
	SizeBytes      int64     `json:"size"`
	MimeType       string    `json:"type"`
	Owner          Owner     `json:"owner"`
	PrevSignatures string    `json:"prev_signatures"`
	SendSigned     bool      `json:"sendsigned"`
	SkipFinal      bool      `json:"skipfinal"`
	LoA            string    `json:"loa"`
	Ordered        bool      `json:"ordered"`
	InvitationText string    `json:"invitation_text"`
	CreatedAt      time.Time `json:"created"`
	UpdatedAt      time.Time `json:"updated"`

	// Blob содержимое в base64, в метаданных не хранится
	Blob string `json:"blob,omitempty"`
}

// AddDocumentOptions : флаги, задаваемые владельцем при загрузке документа
type AddDocumentOptions struct {
	SendSigned     bool
	LoA            string
	SkipFinal      bool
	Ordered        bool
	InvitationText string
}

// Lock : блокировка документа на время подписания
type Lock struct {
	LockedAt     *time.Time
	LockingEmail string
}

// DocumentView : представление документа для владельца или приглашённого
type DocumentView struct {
	Document
	InviteKey string    `json:"invite_key,omitempty"`
	State     string    `json:"state"`
	Pending   []Invitee `json:"pending"`
	Signed    []Invitee `json:"signed"`
	Declined  []Invitee `json:"declined"`
	LoAOK     bool      `json:"loa_ok"`
}

// Overview : документы пользователя и флаг необходимости опроса
type Overview struct {
	Owned   []DocumentView `json:"owned"`
	Pending []DocumentView `json:"pending"`
	Poll    bool           `json:"poll"`
}
