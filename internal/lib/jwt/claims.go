// Package jwt реализует генерацию и парсинг JWT токенов сессии пользователя.
//
// Maker определяет интерфейс для создания и проверки токенов, несущих UID
// учётной записи. MakerImpl — конкретная реализация с использованием
// секретного ключа и срока жизни обновлённого токена.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken создаёт бессрочный токен сессии для userUID.
	GenerateToken(userUID string) (string, error)
	// GenerateRefreshedToken создаёт токен с ограниченным сроком жизни,
	// выдаваемый при смене email.
	GenerateRefreshedToken(userUID string) (string, error)
	// ParseToken возвращает *Claims с UID пользователя.
	ParseToken(tokenStr string) (*Claims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни обновлённого токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни обновлённого токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
