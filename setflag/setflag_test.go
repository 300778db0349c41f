package setflag_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amonks/discography/setflag"
)

func TestSetFlag(t *testing.T) {
	types := setflag.New("album", "ep", "single")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Var(types, "types", "release types")

	require.NoError(t, fs.Parse([]string{"--types", "single, Album", "--types=ep"}))
	assert.Equal(t, []string{"album", "ep", "single"}, types.List())
	assert.Equal(t, "album,ep,single", types.String())
	assert.True(t, types.IsSet())
}

func TestSetFlagRejectsUnknown(t *testing.T) {
	types := setflag.New("album")
	assert.Error(t, types.Set("bootleg"))
	assert.False(t, types.IsSet())
}
