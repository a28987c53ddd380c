// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gymroster/internal/platform/constants"
)

func TestClientOptions(t *testing.T) {
	options, err := clientOptions("redis://:secret@cache:6380/2", 0)
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", options.Addr)
	assert.Equal(t, 2, options.DB)
	assert.Equal(t, "secret", options.Password)
	assert.Equal(t, constants.DefaultRedisPoolSize, options.PoolSize)
	assert.Equal(t, readTimeout, options.ReadTimeout)

	small, err := clientOptions("redis://cache:6379/0", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, small.PoolSize)
	assert.Equal(t, 1, small.MinIdleConns)
	assert.Equal(t, 1, small.MaxIdleConns)

	_, err = clientOptions("http://cache", 4)
	assert.ErrorContains(t, err, "redis: invalid URL")
}
