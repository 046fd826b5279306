package requestresponse

import (
	"multisign-server/internal/model"
)

// InviteeRequest : приглашённый подписант в теле запроса
type InviteeRequest struct {
	Name  string `json:"name" example:"Bob"`
	Email string `json:"email" example:"bob@example.org"`
	Lang  string `json:"lang" example:"en"`
}

func (r InviteeRequest) ToModel() model.Invitee {
	return model.Invitee{Name: r.Name, Email: r.Email, Lang: r.Lang}
}

func inviteesToModel(invitees []InviteeRequest) []model.Invitee {
	result := make([]model.Invitee, 0, len(invitees))
	for _, invitee := range invitees {
		result = append(result, invitee.ToModel())
	}
	return result
}

// CreateDocumentRequest : загрузка документа владельцем вместе со списком подписантов
type CreateDocumentRequest struct {
	Key            string           `json:"key,omitempty" example:"2f1c5a1e-8b1d-4f1e-8b29-1234567890ab"`
	Name           string           `json:"name" example:"contract.pdf"`
	Type           string           `json:"type" example:"application/pdf"`
	Blob           string           `json:"blob" example:"JVBERi0xLjQK"`
	PrevSignatures string           `json:"prev_signatures,omitempty"`
	SendSigned     bool             `json:"sendsigned" example:"true"`
	SkipFinal      bool             `json:"skipfinal" example:"false"`
	LoA            string           `json:"loa,omitempty" example:"high"`
	Ordered        bool             `json:"ordered" example:"false"`
	InvitationText string           `json:"text,omitempty" example:"Please sign"`
	Invitees       []InviteeRequest `json:"invitees"`
}

func (r CreateDocumentRequest) Document() *model.Document {
	return &model.Document{
		Key:            r.Key,
		Name:           r.Name,
		MimeType:       r.Type,
		Blob:           r.Blob,
		PrevSignatures: r.PrevSignatures,
	}
}

func (r CreateDocumentRequest) Options() model.AddDocumentOptions {
	return model.AddDocumentOptions{
		SendSigned:     r.SendSigned,
		LoA:            r.LoA,
		SkipFinal:      r.SkipFinal,
		Ordered:        r.Ordered,
		InvitationText: r.InvitationText,
	}
}

func (r CreateDocumentRequest) InviteesModel() []model.Invitee {
	return inviteesToModel(r.Invitees)
}

// CreateDocumentResponse : ключ документа и созданные приглашения
type CreateDocumentResponse struct {
	Key         string             `json:"key" example:"2f1c5a1e-8b1d-4f1e-8b29-1234567890ab"`
	Invitations []model.Invitation `json:"invitations"`
}

// UpdateInvitationsRequest : новый список подписантов документа
type UpdateInvitationsRequest struct {
	Invitees []InviteeRequest `json:"invitees"`
}

func (r UpdateInvitationsRequest) InviteesModel() []model.Invitee {
	return inviteesToModel(r.Invitees)
}

// DelegateRequest : передача приглашения другому подписанту
type DelegateRequest struct {
	Name  string `json:"name" example:"Carol"`
	Email string `json:"email" example:"carol@example.org"`
	Lang  string `json:"lang" example:"en"`
}

// SignDocumentRequest : подписанное содержимое документа в base64
type SignDocumentRequest struct {
	Blob string `json:"blob" example:"JVBERi0xLjcK"`
}

// SignResponseRequest : ответ сервиса подписи, пересланный клиентом
type SignResponseRequest struct {
	SignResponse string `json:"sign_response" example:"PD94bWwgdmVyc2lvbj0i..."`
	RelayState   string `json:"relay_state" example:"relay-1"`
}

// SignResponseResponse : ключи документов, сохранённых после подписи
type SignResponseResponse struct {
	Documents []string `json:"documents"`
}

// LockResponse : состояние блокировки документа для текущего пользователя
type LockResponse struct {
	Locked bool `json:"locked" example:"true"`
}

// UnlockResponse : результат снятия блокировки
type UnlockResponse struct {
	Unlocked bool `json:"unlocked" example:"true"`
}

// RemoveDocumentResponse : результат удаления документа
type RemoveDocumentResponse struct {
	Removed bool `json:"removed" example:"true"`
}

// ErrorResponse : тело ответа с ошибкой
type ErrorResponse struct {
	Error   string `json:"error" example:"Conflict"`
	Message string `json:"message" example:"документ заблокирован другим подписантом"`
	Code    int    `json:"code" example:"409"`
}

// SuccessResponse : стандартный ответ успешного выполнения операции
type SuccessResponse struct {
	Message string `json:"message" example:"Операция выполнена успешно"`
}
