package server

import "github.com/donezo-dev/donezo/internal/models"

func sessionFor(token string) models.Session {
	return models.Session{
		Identity: models.Identity{ID: models.StringID("1"), Email: "a@x.com"},
		Token:    token,
	}
}
