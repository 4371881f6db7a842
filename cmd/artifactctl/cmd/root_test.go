package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Commands(t *testing.T) {
	root := RootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"load", "list"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup(configFlag))
}

func TestListCmd_Flags(t *testing.T) {
	root := RootCmd()
	list, _, err := root.Find([]string{"list"})
	require.NoError(t, err)

	require.NoError(t, list.ParseFlags([]string{"--project", "try", "--filter", "name__in=a,b", "--filter", "job_id=1", "--count", "5"}))
	filters, err := list.Flags().GetStringArray("filter")
	require.NoError(t, err)
	assert.Equal(t, []string{"name__in=a,b", "job_id=1"}, filters)
	count, err := list.Flags().GetInt("count")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestLoadCmd_MissingFlags(t *testing.T) {
	root := RootCmd()
	root.SetArgs([]string{"load"})
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))
	assert.Error(t, root.Execute())
}

type nopWriter struct{}

func (*nopWriter) Write(p []byte) (int, error) { return len(p), nil }
