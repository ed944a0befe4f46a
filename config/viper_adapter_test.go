/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testExecutorConfigYAML = `
executor:
  maxConcurrent: 4
  windowSize: 5m
  algorithm: Rolling_Log
  maxLogSize: 10Mi
  locales: [zh-CN, en-US]
`

func TestViperAdapter(t *testing.T) {
	va := NewViperAdapter()
	require.NoError(t, va.SetFromReader(bytes.NewBufferString(testExecutorConfigYAML), DataTypeYAML))
	dp := NewKeyPrefixedDataProvider(va, "executor")

	t.Run("int", func(t *testing.T) {
		v, err := dp.GetInt("maxConcurrent")
		require.NoError(t, err)
		require.Equal(t, 4, v)
	})

	t.Run("duration", func(t *testing.T) {
		v, err := dp.GetDuration("windowSize")
		require.NoError(t, err)
		require.Equal(t, 5*time.Minute, v)

		v, err = dp.GetDuration("pollInterval")
		require.NoError(t, err)
		require.Zero(t, v)
	})

	t.Run("string from set", func(t *testing.T) {
		v, err := dp.GetStringFromSet("algorithm", []string{"rolling_log", "leaky_bucket"}, true)
		require.NoError(t, err)
		require.Equal(t, "Rolling_Log", v)

		_, err = dp.GetStringFromSet("algorithm", []string{"rolling_log"}, false)
		require.ErrorContains(t, err, "executor.algorithm")
	})

	t.Run("size in bytes", func(t *testing.T) {
		v, err := dp.GetSizeInBytes("maxLogSize")
		require.NoError(t, err)
		require.Equal(t, uint64(10*1024*1024), v)
	})

	t.Run("string slice", func(t *testing.T) {
		v, err := dp.GetStringSlice("locales")
		require.NoError(t, err)
		require.Equal(t, []string{"zh-CN", "en-US"}, v)
	})

	t.Run("wrap key error", func(t *testing.T) {
		_, err := dp.GetInt("algorithm")
		require.ErrorContains(t, err, "executor.algorithm")
	})
}
