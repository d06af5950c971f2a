// Package models содержит доменную модель пользователя сервиса,
// включающую данные учётной записи, хэш пароля и отметки времени.
// Структура используется в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя сервиса.
type User struct {
	UID          string    `json:"id"`                      // Уникальный идентификатор, назначается хранилищем
	Username     string    `json:"username"`                // Имя пользователя
	Email        string    `json:"email"`                   // Электронная почта (уникальная)
	PasswordHash string    `json:"password_hash,omitempty"` // bcrypt-хэш пароля
	CreatedAt    time.Time `json:"created_at"`              // Дата создания записи
	UpdatedAt    time.Time `json:"updated_at"`              // Дата последнего обновления
}

// Redacted возвращает копию пользователя без хэша пароля.
// Используется в ответах, где хэш не должен попадать наружу.
func (u User) Redacted() User {
	u.PasswordHash = ""
	return u
}

// UserUpdate описывает частичное обновление полей пользователя.
// Nil-поле означает, что значение не меняется.
type UserUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// IsEmpty сообщает, содержит ли обновление хотя бы одно поле.
func (u UserUpdate) IsEmpty() bool {
	return u.Username == nil && u.Email == nil && u.PasswordHash == nil
}
