package user

import (
	"context"
	"errors"
	"strings"

	"github.com/kcho760/BlockBuzzNYC-sub000/internal/db"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

func (s *Service) Get(ctx context.Context, id string) (Profile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, username, profile_picture_url, pin_count, total_likes, created_at, updated_at
		FROM users WHERE id=$1
	`, id)

	var p Profile
	if err := row.Scan(&p.ID, &p.Email, &p.Username, &p.ProfilePictureURL, &p.PinCount, &p.TotalLikes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}

	achievements, err := s.Achievements(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	p.Achievements = achievements
	return p, nil
}

// Update patches username and profile picture; untouched fields keep their
// stored values.
func (s *Service) Update(ctx context.Context, id string, patch Profile) (Profile, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}

	if username := strings.TrimSpace(patch.Username); username != "" && username != current.Username {
		var taken bool
		if err := s.db.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM users WHERE username=$1 AND id<>$2)
		`, username, id).Scan(&taken); err != nil {
			return Profile{}, err
		}
		if taken {
			return Profile{}, ErrUsernameTaken
		}
		current.Username = username
	}
	if patch.ProfilePictureURL != "" {
		current.ProfilePictureURL = patch.ProfilePictureURL
	}

	_, err = s.db.Exec(ctx, `
		UPDATE users
		SET username=$2, profile_picture_url=$3, updated_at=NOW()
		WHERE id=$1
	`, id, current.Username, current.ProfilePictureURL)
	if err != nil {
		return Profile{}, err
	}
	return current, nil
}

func (s *Service) Achievements(ctx context.Context, userID string) ([]Achievement, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, earned, earned_at
		FROM achievements WHERE user_id=$1
		ORDER BY earned_at NULLS LAST, name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Achievement
	for rows.Next() {
		var a Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Earned, &a.EarnedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
