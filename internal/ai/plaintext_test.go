package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainTextStripsMarkdown(t *testing.T) {
	in := "## Overview\n\nThe **server** wires [routes](http://x) together.\n\n- Starts `gin`\n- Loads config\n\n```go\nfunc main() {}\n```\n"
	out := PlainText(in)
	require.Equal(t, "Overview\nThe server wires routes together.\nStarts gin\nLoads config\nfunc main() {}", out)
}

func TestPlainTextEmpty(t *testing.T) {
	require.Empty(t, PlainText("   \n"))
}
