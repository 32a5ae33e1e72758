package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Kyz7/portfolio/internal/apperr"
	"github.com/Kyz7/portfolio/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	db     *gorm.DB
	tokens *TokenManager
	log    *slog.Logger
}

func NewService(db *gorm.DB, tokens *TokenManager, log *slog.Logger) *Service {
	return &Service{db: db, tokens: tokens, log: log}
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates a local account. The very first account becomes admin.
func (s *Service) Register(ctx context.Context, username, password, nickname string) (*models.User, string, error) {
	const op = "auth.Service.Register"
	log := s.log.With(slog.String("op", op))

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&existing).Error; err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if existing > 0 {
		return nil, "", fmt.Errorf("%s: %w: username already taken", op, apperr.ErrConflict)
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	role := models.RoleUser
	if total == 0 {
		role = models.RoleAdmin
	}
	if nickname == "" {
		nickname = username
	}

	u := models.User{
		Username: username,
		Password: hashed,
		Role:     role,
		Nickname: nickname,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.Generate(u.ID, u.Role)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Uint64("user_id", uint64(u.ID)), slog.String("role", u.Role))
	return &u, token, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	const op = "auth.Service.Login"

	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	if !CheckPasswordHash(password, u.Password) {
		return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.tokens.Generate(u.ID, u.Role)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	return &u, token, nil
}

func (s *Service) Me(ctx context.Context, id uint) (*models.User, error) {
	const op = "auth.Service.Me"

	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: user %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// UpdateProfile changes the caller's own nickname and avatar; empty values
// are left alone.
func (s *Service) UpdateProfile(ctx context.Context, id uint, nickname, avatar string) (*models.User, error) {
	const op = "auth.Service.UpdateProfile"

	u, err := s.Me(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if nickname != "" {
		updates["nickname"] = nickname
	}
	if avatar != "" {
		updates["avatar"] = avatar
	}
	if len(updates) == 0 {
		return u, nil
	}

	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.Me(ctx, id)
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id uint, current, next string) error {
	const op = "auth.Service.ChangePassword"

	u, err := s.Me(ctx, id)
	if err != nil {
		return err
	}
	if !CheckPasswordHash(current, u.Password) {
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	hashed, err := HashPassword(next)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.db.WithContext(ctx).Model(u).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("password changed", slog.String("op", op), slog.Uint64("user_id", uint64(id)))
	return nil
}
