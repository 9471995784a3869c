package pin

import (
	"context"
	"errors"

	"github.com/kcho760/BlockBuzzNYC-sub000/internal/db"
	"github.com/kcho760/BlockBuzzNYC-sub000/internal/shared/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("pin not found")

type Service struct {
	db db.TxQuerier
}

func NewService(q db.TxQuerier) *Service {
	return &Service{db: q}
}

// Create inserts the pin and bumps the owner's pin counter in one
// transaction; either both land or neither does.
func (s *Service) Create(ctx context.Context, input Pin, ownerID string) (Pin, error) {
	input.ID = uuid.NewString()
	input.CreatorUserID = ownerID
	if input.PhotoURL == "" {
		input.PhotoURL = PlaceholderPhotoURL
	}
	input.Likes = nil

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Pin{}, err
	}

	created, err := createInTx(ctx, tx, input, ownerID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return Pin{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Pin{}, err
	}
	return created, nil
}

func createInTx(ctx context.Context, tx pgx.Tx, input Pin, ownerID string) (Pin, error) {
	if err := tx.QueryRow(ctx, `
		SELECT username FROM users WHERE id=$1 FOR UPDATE
	`, ownerID).Scan(&input.CreatorUsername); err != nil {
		return Pin{}, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO pins (id, title, description, lat, lng, photo_url, creator_user_id, creator_username)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, input.ID, input.Title, input.Description, input.Lat, input.Lng, input.PhotoURL, input.CreatorUserID, input.CreatorUsername)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Pin{}, err
	}

	for i, tag := range input.Tags {
		if _, err := tx.Exec(ctx, `
			INSERT INTO pin_tags (pin_id, position, tag) VALUES ($1,$2,$3)
		`, input.ID, i, tag); err != nil {
			return Pin{}, err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users SET pin_count = pin_count + 1 WHERE id=$1
	`, ownerID); err != nil {
		return Pin{}, err
	}
	return input, nil
}

// All fetches the entire pin collection. Visibility filtering happens
// client-side in Nearby, so this read is unbounded; cost grows with the
// total pin count.
func (s *Service) All(ctx context.Context) ([]Pin, error) {
	return s.list(ctx, `
		SELECT id, title, description, lat, lng, photo_url, creator_user_id, creator_username, created_at
		FROM pins
		ORDER BY created_at DESC
	`)
}

func (s *Service) ByOwner(ctx context.Context, ownerID string) ([]Pin, error) {
	return s.list(ctx, `
		SELECT id, title, description, lat, lng, photo_url, creator_user_id, creator_username, created_at
		FROM pins WHERE creator_user_id=$1
		ORDER BY created_at DESC
	`, ownerID)
}

func (s *Service) Get(ctx context.Context, id string) (Pin, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, title, description, lat, lng, photo_url, creator_user_id, creator_username, created_at
		FROM pins WHERE id=$1
	`, id)
	var p Pin
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Lat, &p.Lng, &p.PhotoURL, &p.CreatorUserID, &p.CreatorUsername, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Pin{}, ErrNotFound
		}
		return Pin{}, err
	}

	likes, err := s.loadLikes(ctx, []string{p.ID})
	if err != nil {
		return Pin{}, err
	}
	tags, err := s.loadTags(ctx, []string{p.ID})
	if err != nil {
		return Pin{}, err
	}
	p.Likes = likes[p.ID]
	p.Tags = tags[p.ID]
	return p, nil
}

// Update overwrites the whole pin document; last writer wins, there is no
// version check.
func (s *Service) Update(ctx context.Context, input Pin) (Pin, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Pin{}, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE pins
		SET title=$2, description=$3, lat=$4, lng=$5, photo_url=$6
		WHERE id=$1
	`, input.ID, input.Title, input.Description, input.Lat, input.Lng, input.PhotoURL)
	if err != nil {
		_ = tx.Rollback(ctx)
		return Pin{}, err
	}
	if tag.RowsAffected() == 0 {
		_ = tx.Rollback(ctx)
		return Pin{}, ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pin_tags WHERE pin_id=$1`, input.ID); err != nil {
		_ = tx.Rollback(ctx)
		return Pin{}, err
	}
	for i, t := range input.Tags {
		if _, err := tx.Exec(ctx, `
			INSERT INTO pin_tags (pin_id, position, tag) VALUES ($1,$2,$3)
		`, input.ID, i, t); err != nil {
			_ = tx.Rollback(ctx)
			return Pin{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Pin{}, err
	}
	return s.Get(ctx, input.ID)
}

// Delete removes the pin and decrements the owner's pin counter together.
// Likes and chat messages go with the pin via FK cascade.
func (s *Service) Delete(ctx context.Context, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}

	var ownerID string
	if err := tx.QueryRow(ctx, `
		SELECT creator_user_id FROM pins WHERE id=$1 FOR UPDATE
	`, id).Scan(&ownerID); err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pins WHERE id=$1`, id); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE users SET pin_count = GREATEST(pin_count - 1, 0) WHERE id=$1
	`, ownerID); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

// ToggleLike adds the user to the pin's like set if absent, removes them if
// present. The pin_likes primary key gives the set semantics, so concurrent
// toggles from different users cannot overwrite each other. The membership
// change and the owner's total_likes counter move in one transaction.
func (s *Service) ToggleLike(ctx context.Context, pinID, userID string) (Pin, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Pin{}, err
	}

	if err := toggleLikeInTx(ctx, tx, pinID, userID); err != nil {
		_ = tx.Rollback(ctx)
		return Pin{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Pin{}, err
	}

	return s.Get(ctx, pinID)
}

func toggleLikeInTx(ctx context.Context, tx pgx.Tx, pinID, userID string) error {
	var liked bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM pin_likes WHERE pin_id=$1 AND user_id=$2)
	`, pinID, userID).Scan(&liked); err != nil {
		return err
	}

	if liked {
		if _, err := tx.Exec(ctx, `
			DELETE FROM pin_likes WHERE pin_id=$1 AND user_id=$2
		`, pinID, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			UPDATE users SET total_likes = GREATEST(total_likes - 1, 0)
			WHERE id = (SELECT creator_user_id FROM pins WHERE id=$1)
		`, pinID)
		return err
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO pin_likes (pin_id, user_id) VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, pinID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE users SET total_likes = total_likes + 1
			WHERE id = (SELECT creator_user_id FROM pins WHERE id=$1)
		`, pinID); err != nil {
			return err
		}
	}
	return nil
}

// Nearby fetches every pin and filters by great-circle distance on the way
// out. The full fetch mirrors the app's behavior; there is no server-side
// geo query.
func (s *Service) Nearby(ctx context.Context, origin geo.Point, radiusM float64) ([]Pin, error) {
	if radiusM <= 0 {
		radiusM = geo.DefaultRadiusM
	}

	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	var visible []Pin
	for _, p := range all {
		if geo.IsWithinRadius(origin, geo.Point{Lat: p.Lat, Lng: p.Lng}, radiusM) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

func (s *Service) list(ctx context.Context, sql string, args ...any) ([]Pin, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pins []Pin
	var ids []string
	for rows.Next() {
		var p Pin
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Lat, &p.Lng, &p.PhotoURL, &p.CreatorUserID, &p.CreatorUsername, &p.CreatedAt); err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
		pins = append(pins, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	likes, err := s.loadLikes(ctx, ids)
	if err != nil {
		return nil, err
	}
	tags, err := s.loadTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range pins {
		pins[i].Likes = likes[pins[i].ID]
		pins[i].Tags = tags[pins[i].ID]
	}
	return pins, nil
}

func (s *Service) loadLikes(ctx context.Context, pinIDs []string) (map[string][]string, error) {
	if len(pinIDs) == 0 {
		return map[string][]string{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT pin_id, user_id FROM pin_likes WHERE pin_id = ANY($1)
		ORDER BY created_at
	`, pinIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	likes := map[string][]string{}
	for rows.Next() {
		var pinID, userID string
		if err := rows.Scan(&pinID, &userID); err != nil {
			return nil, err
		}
		likes[pinID] = append(likes[pinID], userID)
	}
	return likes, rows.Err()
}

func (s *Service) loadTags(ctx context.Context, pinIDs []string) (map[string][]string, error) {
	if len(pinIDs) == 0 {
		return map[string][]string{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT pin_id, tag FROM pin_tags WHERE pin_id = ANY($1)
		ORDER BY position
	`, pinIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := map[string][]string{}
	for rows.Next() {
		var pinID, tag string
		if err := rows.Scan(&pinID, &tag); err != nil {
			return nil, err
		}
		tags[pinID] = append(tags[pinID], tag)
	}
	return tags, rows.Err()
}
