package user

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewPostgres(t *testing.T) {
	var repo Repository = NewPostgres(nil, zerolog.Nop())
	if repo == nil {
		t.Fatal("expected a repository")
	}
}
