package s3

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/minio"

	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/mail"
	"gitlab.com/ucmsv2/accounts/tests/integration/fixtures"
)

func newMinioClient(t *testing.T) *Client {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := t.Context()
	container, err := minio.Run(ctx, "minio/minio:RELEASE.2024-01-16T16-07-38Z",
		minio.WithUsername("minioadmin"),
		minio.WithPassword("minioadmin"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := NewClient(ctx, Config{
		Endpoint:  "http://" + endpoint,
		AccessKey: container.Username,
		SecretKey: container.Password,
		Bucket:    "mail-drop",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	require.NoError(t, client.CreateBucket(ctx))
	require.NoError(t, client.CreateBucket(ctx), "second create must be a no-op")

	return client
}

func TestMailDrop_SendMail(t *testing.T) {
	client := newMinioClient(t)
	drop := NewMailDrop(MailDropArgs{Client: client, From: "no-reply@accounts.test"})

	err := drop.SendMail(t.Context(), mail.Payload{
		To:      fixtures.ValidEmail,
		Subject: "Confirm your email address",
		Body:    "Your email verification code is: " + fixtures.ValidCode,
	})
	require.NoError(t, err)

	keys, err := client.ListKeys(t.Context(), "mail/")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, strings.HasSuffix(keys[0], ".eml"))

	data, err := client.GetObject(t.Context(), keys[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "To: "+fixtures.ValidEmail)
	assert.Contains(t, string(data), fixtures.ValidCode)
}

func TestClient_GetObject_Missing(t *testing.T) {
	client := newMinioClient(t)

	_, err := client.GetObject(t.Context(), "mail/missing.eml")
	assert.Error(t, err)
}
