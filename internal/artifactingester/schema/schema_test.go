package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactMigrations(t *testing.T) {
	migrations, err := ArtifactMigrations()
	require.NoError(t, err)
	assert.Len(t, migrations, 2)
}
