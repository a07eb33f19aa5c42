package vcs

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

func TestResolveRepo(t *testing.T) {
	tests := []struct {
		in    string
		owner string
		name  string
	}{
		{"https://github.com/acme/widgets", "acme", "widgets"},
		{"https://github.com/acme/widgets/", "acme", "widgets"},
		{"https://github.com/acme/widgets.git", "acme", "widgets"},
		{"  acme/widgets  ", "acme", "widgets"},
		{"github.com/acme/widgets", "acme", "widgets"},
		{"https://github.example.com/org/acme/widgets", "acme", "widgets"},
	}
	for _, tc := range tests {
		ref, err := ResolveRepo(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.owner, ref.Owner, tc.in)
		require.Equal(t, tc.name, ref.Name, tc.in)
	}
}

func TestResolveRepoRejectsShortPaths(t *testing.T) {
	for _, in := range []string{"", "widgets", "https://github.com/", "https://github.com/acme"} {
		_, err := ResolveRepo(in)
		require.ErrorIs(t, err, appErr.ErrInvalidRepoURL, in)
	}
}
