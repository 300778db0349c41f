package downloader_test

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"

	"github.com/amonks/discography/config"
	"github.com/amonks/discography/downloader"
)

func TestNew(t *testing.T) {
	c, err := downloader.New(config.Downloader{Method: "blackhole"}, nil, hclog.NewNullLogger())
	assert.NoError(t, err)
	assert.NotNil(t, c)

	_, err = downloader.New(config.Downloader{Method: "transmission"}, nil, hclog.NewNullLogger())
	assert.Error(t, err)
}
