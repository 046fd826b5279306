package model

import "errors"

var (
	ErrNotFound           = errors.New("не найдено")
	ErrForbidden          = errors.New("нет доступа")
	ErrDocumentLocked     = errors.New("документ заблокирован другим подписантом")
	ErrNotYourTurn        = errors.New("очередь подписания ещё не дошла до приглашённого")
	ErrSignerMismatch     = errors.New("не удалось однозначно определить приглашение подписанта")
	ErrPendingInvitations = errors.New("у документа есть неразрешённые приглашения")
	ErrInvalidDocument    = errors.New("некорректный документ")
	ErrSignAPI            = errors.New("ошибка сервиса подписи")
)
