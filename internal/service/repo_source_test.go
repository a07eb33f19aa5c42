package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

func TestResolveCorruptTokenIsInternal(t *testing.T) {
	db := newFakeProjectDB()
	p := db.addProject("p1", "acme/tool", "tok")
	p.TokenCipher = "not-a-cipher"
	src := repoSource{projects: db, box: testBox}

	_, _, _, err := src.resolve(context.Background(), "p1")
	require.ErrorIs(t, err, appErr.ErrInternal)

	_, _, _, err = src.resolve(context.Background(), "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
