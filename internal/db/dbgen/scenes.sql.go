package dbgen

import (
	"context"
)

const createScene = `
INSERT INTO scenes (id, name, owner_id)
VALUES ($1, $2, $3)
RETURNING id, name, owner_id, created_at, updated_at
`

type CreateSceneParams struct {
	ID      string
	Name    string
	OwnerID string
}

func (q *Queries) CreateScene(ctx context.Context, arg CreateSceneParams) (Scene, error) {
	row := q.db.QueryRow(ctx, createScene, arg.ID, arg.Name, arg.OwnerID)
	var i Scene
	err := row.Scan(&i.ID, &i.Name, &i.OwnerID, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getScene = `
SELECT id, name, owner_id, created_at, updated_at FROM scenes WHERE id = $1
`

func (q *Queries) GetScene(ctx context.Context, id string) (Scene, error) {
	row := q.db.QueryRow(ctx, getScene, id)
	var i Scene
	err := row.Scan(&i.ID, &i.Name, &i.OwnerID, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listScenesForUser = `
SELECT id, name, owner_id, created_at, updated_at FROM scenes
WHERE owner_id = $1
ORDER BY updated_at DESC
`

func (q *Queries) ListScenesForUser(ctx context.Context, ownerID string) ([]Scene, error) {
	rows, err := q.db.Query(ctx, listScenesForUser, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Scene
	for rows.Next() {
		var i Scene
		if err := rows.Scan(&i.ID, &i.Name, &i.OwnerID, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const touchScene = `
UPDATE scenes SET updated_at = now() WHERE id = $1
`

func (q *Queries) TouchScene(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, touchScene, id)
	return err
}

const deleteScene = `
DELETE FROM scenes WHERE id = $1
`

func (q *Queries) DeleteScene(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteScene, id)
	return err
}
