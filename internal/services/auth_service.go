package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/projectpulse/backend/internal/auth"
	"github.com/projectpulse/backend/internal/models"
)

type authServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	tokens *auth.TokenManager
}

func NewAuthService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	tokens *auth.TokenManager,
) AuthService {
	return &authServiceImpl{
		logger: logger,
		pgPool: pgPool,
		tokens: tokens,
	}
}

func (s *authServiceImpl) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	now := time.Now()
	user := models.User{
		Username:  params.Username,
		Email:     params.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	const selectExistingUserQuery = `
SELECT id
FROM users
WHERE username = $1 OR
      email = $2
`
	var existingID string
	err := s.pgPool.QueryRow(
		ctx,
		selectExistingUserQuery,
		user.Username,
		user.Email,
	).Scan(&existingID)
	if err == nil {
		s.logger.Warn().
			Str("username", user.Username).
			Msg("username or email already taken")
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		s.logger.Error().
			Err(err).
			Msg("failed to select existing user")
		return nil, err
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	user.ID = userUUID.String()

	passwordHash, err := auth.HashPassword(params.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}
	user.PasswordHash = passwordHash

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertUserQuery = `
INSERT INTO users (id,
                   username,
                   email,
                   password_hash,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err = tx.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// The pre-insert lookup cannot see a concurrent
			// signup; the unique constraint settles the race.
			if pgErr.Code == pgerrcode.UniqueViolation {
				s.logger.Warn().
					Str("username", user.Username).
					Msg("lost signup race on unique constraint")
				return nil, ErrUserAlreadyExists
			}
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("registered user")
	return &user, nil
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user := models.User{
		Username: params.Username,
	}

	const selectUserByUsernameQuery = `
SELECT id,
       email,
       password_hash,
       created_at,
       updated_at
FROM users
WHERE username = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectUserByUsernameQuery,
		user.Username,
	).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Str("username", user.Username).
				Msg("login for unknown username")
			return nil, ErrInvalidCredentials
		}

		s.logger.Error().
			Err(err).
			Str("username", user.Username).
			Msg("failed to select user by username")
		return nil, err
	}

	if !auth.VerifyPassword(params.Password, user.PasswordHash) {
		s.logger.Warn().
			Str("user_id", user.ID).
			Msg("password mismatch")
		return nil, ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to issue access token")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("logged in")
	return &LoginResult{
		User:        &user,
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
	}, nil
}
