// Package services содержит логику бизнес-уровня для работы с учётными записями.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/magabrotheeeer/user-account-service/internal/lib/jwt"
	"github.com/magabrotheeeer/user-account-service/internal/lib/password"
	"github.com/magabrotheeeer/user-account-service/internal/lib/sl"
	"github.com/magabrotheeeer/user-account-service/internal/models"
	"github.com/magabrotheeeer/user-account-service/internal/storage/repository"
)

// Ошибки бизнес-уровня, по которым обработчики выбирают HTTP-статус.
var (
	// ErrUserExists возвращается при попытке регистрации с занятым email.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials возвращается при несовпадении пары email/пароль.
	// Нарочно не различает "нет такого пользователя" и "неверный пароль".
	ErrInvalidCredentials = errors.New("invalid credentials, please try again or signup")
	// ErrUserNotFound возвращается, когда учётная запись отсутствует.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotOwner возвращается, когда вызывающий пытается изменить чужую запись.
	ErrNotOwner = errors.New("not authorized to update this user")
	// ErrUsernameTooShort возвращается при слишком коротком имени пользователя.
	ErrUsernameTooShort = errors.New("username must be at least 3 characters long")
	// ErrInvalidEmail возвращается при некорректном формате email.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrEmailTaken возвращается, когда новый email уже занят другой записью.
	ErrEmailTaken = errors.New("email already in use")
	// ErrCurrentPasswordRequired возвращается, если при смене пароля не передан текущий.
	ErrCurrentPasswordRequired = errors.New("current password is required to update password")
	// ErrWrongPassword возвращается при неверном текущем пароле.
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrPasswordTooShort возвращается при слишком коротком новом пароле.
	ErrPasswordTooShort = errors.New("new password must be at least 8 characters long")
	// ErrNoUpdates возвращается, когда ни одно поле фактически не меняется.
	ErrNoUpdates = errors.New("no valid updates provided")
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Маршрутные ключи событий учётных записей.
const (
	EventRegistered = "registered"
	EventDeleted    = "deleted"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает вставленную запись.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	// GetUserByEmail возвращает пользователя по email или repository.ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByUID возвращает пользователя по UID или repository.ErrUserNotFound.
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
	// EmailTaken сообщает, занят ли email другой записью.
	EmailTaken(ctx context.Context, email, exceptUID string) (bool, error)
	// UpdateUser обновляет только переданные поля и возвращает обновлённую запись.
	UpdateUser(ctx context.Context, userUID string, upd models.UserUpdate) (*models.User, error)
	// DeleteUserByEmail удаляет пользователя по email.
	DeleteUserByEmail(ctx context.Context, email string) (int64, error)
}

// Cache описывает методы для кэширования учётных записей.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// EventPublisher публикует события жизненного цикла учётных записей.
type EventPublisher interface {
	Publish(routingKey string, event any) error
}

// UpdateRequest содержит необязательные новые значения полей учётной записи.
// CurrentPassword обязателен только при смене пароля.
type UpdateRequest struct {
	Username        string
	Email           string
	Password        string
	CurrentPassword string
}

// UserEvent — полезная нагрузка события жизненного цикла учётной записи.
type UserEvent struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserService реализует регистрацию, аутентификацию и CRUD учётных записей.
type UserService struct {
	repo     UserRepository
	cache    Cache
	events   EventPublisher
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, cache Cache, events EventPublisher, jwtMaker jwt.Maker, log *slog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		cache:    cache,
		events:   events,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает нового пользователя с хэшированием пароля и выпускает
// бессрочный токен сессии. Проверка занятости email выполняется отдельным
// запросом перед вставкой и не атомарна с ней.
func (s *UserService) Register(ctx context.Context, username, email, rawPassword string) (string, string, error) {
	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return "", "", ErrUserExists
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return "", "", err
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", "", err
	}

	created, err := s.repo.CreateUser(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		return "", "", err
	}
	uid := created.UID

	token, err := s.jwtMaker.GenerateToken(uid)
	if err != nil {
		return "", "", err
	}

	s.log.Info("created new user", slog.String("uid", uid))

	// Кешируется запись из базы, с назначенными ею отметками времени.
	cacheKey := fmt.Sprintf("user:%s", uid)
	if err := s.cache.Set(cacheKey, created, time.Hour); err != nil {
		s.log.Warn("failed to cache user", slog.String("key", cacheKey), sl.Err(err))
	}

	s.publish(EventRegistered, UserEvent{UID: uid, Username: username, Email: email})

	return uid, token, nil
}

// Authenticate проверяет пару email/пароль и возвращает запись пользователя.
// Отсутствие записи и неверный пароль дают одну и ту же ошибку.
func (s *UserService) Authenticate(ctx context.Context, email, rawPassword string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get возвращает пользователя по UID, используя кеш или репозиторий.
func (s *UserService) Get(ctx context.Context, userUID string) (*models.User, error) {
	var result *models.User
	cacheKey := fmt.Sprintf("user:%s", userUID)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read user from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found && result != nil {
		return result, nil
	}

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.cache.Set(cacheKey, user, time.Hour); err != nil {
		s.log.Warn("failed to cache user", slog.String("key", cacheKey), sl.Err(err))
	}
	return user, nil
}

// Update применяет частичное обновление учётной записи targetUID.
// Запись может менять только её владелец (callerUID). При смене email
// возвращает обновлённый токен сессии, иначе пустую строку.
func (s *UserService) Update(ctx context.Context, callerUID, targetUID string, req UpdateRequest) (*models.User, string, error) {
	user, err := s.repo.GetUserByUID(ctx, targetUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}

	if callerUID != targetUID {
		return nil, "", ErrNotOwner
	}

	var upd models.UserUpdate

	if req.Username != "" && req.Username != user.Username {
		if len(req.Username) < 3 {
			return nil, "", ErrUsernameTooShort
		}
		upd.Username = &req.Username
	}

	if req.Email != "" && req.Email != user.Email {
		if !emailRegex.MatchString(req.Email) {
			return nil, "", ErrInvalidEmail
		}
		taken, err := s.repo.EmailTaken(ctx, req.Email, targetUID)
		if err != nil {
			return nil, "", err
		}
		if taken {
			return nil, "", ErrEmailTaken
		}
		upd.Email = &req.Email
	}

	if req.Password != "" {
		if req.CurrentPassword == "" {
			return nil, "", ErrCurrentPasswordRequired
		}
		if err := password.CompareHash(user.PasswordHash, req.CurrentPassword); err != nil {
			return nil, "", ErrWrongPassword
		}
		if len(req.Password) < 8 {
			return nil, "", ErrPasswordTooShort
		}
		hashed, err := password.GetHash(req.Password)
		if err != nil {
			return nil, "", err
		}
		upd.PasswordHash = &hashed
	}

	if upd.IsEmpty() {
		return nil, "", ErrNoUpdates
	}

	updated, err := s.repo.UpdateUser(ctx, targetUID, upd)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}

	cacheKey := fmt.Sprintf("user:%s", targetUID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate user cache", slog.String("key", cacheKey), sl.Err(err))
	}

	var token string
	if upd.Email != nil {
		token, err = s.jwtMaker.GenerateRefreshedToken(targetUID)
		if err != nil {
			return nil, "", err
		}
	}

	s.log.Info("updated user", slog.String("uid", targetUID))
	return updated, token, nil
}

// Delete удаляет учётную запись по email. Проверка владельца не выполняется.
func (s *UserService) Delete(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if _, err := s.repo.DeleteUserByEmail(ctx, email); err != nil {
		return err
	}

	cacheKey := fmt.Sprintf("user:%s", user.UID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate user cache", slog.String("key", cacheKey), sl.Err(err))
	}

	s.publish(EventDeleted, UserEvent{UID: user.UID, Username: user.Username, Email: user.Email})

	s.log.Info("deleted user", slog.String("uid", user.UID))
	return nil
}

// publish отправляет событие, не прерывая основную операцию при сбое брокера.
func (s *UserService) publish(routingKey string, event UserEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(routingKey, event); err != nil {
		s.log.Warn("failed to publish user event",
			slog.String("routing_key", routingKey), sl.Err(err))
	}
}
