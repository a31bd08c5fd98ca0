package dbgen

import (
	"context"
)

const createSnapshot = `
INSERT INTO scene_snapshots (id, scene_id, version, document)
VALUES ($1, $2, $3, $4)
RETURNING id, scene_id, version, document, created_at
`

type CreateSnapshotParams struct {
	ID       string
	SceneID  string
	Version  int32
	Document []byte
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (SceneSnapshot, error) {
	row := q.db.QueryRow(ctx, createSnapshot, arg.ID, arg.SceneID, arg.Version, arg.Document)
	var i SceneSnapshot
	err := row.Scan(&i.ID, &i.SceneID, &i.Version, &i.Document, &i.CreatedAt)
	return i, err
}

const getLatestSnapshot = `
SELECT id, scene_id, version, document, created_at FROM scene_snapshots
WHERE scene_id = $1
ORDER BY version DESC
LIMIT 1
`

func (q *Queries) GetLatestSnapshot(ctx context.Context, sceneID string) (SceneSnapshot, error) {
	row := q.db.QueryRow(ctx, getLatestSnapshot, sceneID)
	var i SceneSnapshot
	err := row.Scan(&i.ID, &i.SceneID, &i.Version, &i.Document, &i.CreatedAt)
	return i, err
}
