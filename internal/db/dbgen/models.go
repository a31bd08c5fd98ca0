package dbgen

import (
	"time"
)

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   time.Time
}

type Scene struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SceneSnapshot struct {
	ID        string
	SceneID   string
	Version   int32
	Document  []byte
	CreatedAt time.Time
}
