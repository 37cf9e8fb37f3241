package pubsub

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPublishSendsJSONWithEventAttribute(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	admin, err := pubsub.NewClient(ctx, "proj", option.WithGRPCConn(conn))
	require.NoError(t, err)
	_, err = admin.CreateTopic(ctx, "tenders")
	require.NoError(t, err)

	pub, err := New(ctx, Config{ProjectID: "proj", TopicID: "tenders"}, option.WithGRPCConn(conn))
	require.NoError(t, err)

	id, err := pub.Publish(ctx, "tender.stored", map[string]string{"reestr_number": "0123"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	require.JSONEq(t, `{"reestr_number":"0123"}`, string(msgs[0].Data))
	require.Equal(t, "tender.stored", msgs[0].Attributes["event"])
}

func TestNewRequiresTopic(t *testing.T) {
	_, err := New(context.Background(), Config{ProjectID: "proj"})
	require.Error(t, err)

	var p *Publisher
	_, err = p.Publish(context.Background(), "x", nil)
	require.Error(t, err)
	require.NoError(t, p.Close())
}
