package util

import "github.com/google/uuid"

// NewKey : генерирует непрозрачный внешний ключ документа или приглашения
func NewKey() string {
	return uuid.New().String()
}
