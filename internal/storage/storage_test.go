package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type mapGetter map[string]string

func (m mapGetter) GetString(key string) string { return m[key] }

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(mapGetter{
		"MINIO_CONTAINER_NAME": "minio",
		"MINIO_USER":           "user",
		"MINIO_PASS":           "pass",
		"BUCKET_NAME":          "cakes",
	})
	require.Equal(t, "minio:9000", opts.Endpoint)
	require.Equal(t, "user", opts.User)
	require.Equal(t, "pass", opts.Password)
	require.Equal(t, "cakes", opts.Bucket)

	require.Equal(t, "localhost:9100", OptionsFromConfig(mapGetter{"MINIO_CONTAINER_NAME": "localhost:9100"}).Endpoint)
	require.Empty(t, OptionsFromConfig(mapGetter{}).Endpoint)
}
