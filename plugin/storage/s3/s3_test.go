package s3

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient(context.Background(), &Config{
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "chatmemo",
		EndPoint:  "http://localhost:9000",
		Path:      "exports",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	require.NotNil(t, client.Client)
	require.Equal(t, "exports/alice.json", client.ObjectKey("alice.json"))
}
