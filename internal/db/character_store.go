package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/skalder/emberfall/internal/model"
)

// ErrNotFound is returned when no character row matches the id.
var ErrNotFound = errors.New("character not found")

// SaveCharacter upserts a character snapshot.
func (d *DB) SaveCharacter(ctx context.Context, snap model.CharacterSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot for %s: %w", snap.ID, err)
	}
	_, err = d.pool.Exec(ctx,
		`INSERT INTO characters (id, name, class, level, snapshot, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     class = EXCLUDED.class,
		     level = EXCLUDED.level,
		     snapshot = EXCLUDED.snapshot,
		     updated_at = EXCLUDED.updated_at`,
		snap.ID, snap.Name, snap.Class, snap.Level, raw, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("saving character %s: %w", snap.ID, err)
	}
	return nil
}

// LoadCharacter fetches one snapshot by id.
func (d *DB) LoadCharacter(ctx context.Context, id uuid.UUID) (model.CharacterSnapshot, error) {
	var raw []byte
	err := d.pool.QueryRow(ctx,
		`SELECT snapshot FROM characters WHERE id = $1`, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CharacterSnapshot{}, ErrNotFound
		}
		return model.CharacterSnapshot{}, fmt.Errorf("querying character %s: %w", id, err)
	}
	var snap model.CharacterSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.CharacterSnapshot{}, fmt.Errorf("decoding snapshot for %s: %w", id, err)
	}
	return snap, nil
}

// ListCharacters fetches all stored snapshots, most recently saved first.
func (d *DB) ListCharacters(ctx context.Context) ([]model.CharacterSnapshot, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT snapshot FROM characters ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	var out []model.CharacterSnapshot
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		var snap model.CharacterSnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, fmt.Errorf("decoding snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating character rows: %w", err)
	}
	return out, nil
}

// DeleteCharacter removes one character row. Deleting a missing id is not
// an error.
func (d *DB) DeleteCharacter(ctx context.Context, id uuid.UUID) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting character %s: %w", id, err)
	}
	return nil
}
