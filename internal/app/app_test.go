package app_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/app"
	"github.com/JakeFAU/tender-acquirer/internal/config"
	"github.com/JakeFAU/tender-acquirer/internal/publisher/memory"
	"github.com/JakeFAU/tender-acquirer/internal/sink"
	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

const archiveURL = "https://int44.zakupki.gov.ru/dstore/archive-1.zip"

type stubQuery struct {
	urls []string
	err  error
}

func (s stubQuery) ArchiveURLs(context.Context, tender.QueryRequest) ([]string, error) {
	return s.urls, s.err
}

type stubFetcher struct {
	data []byte
}

func (s stubFetcher) Fetch(context.Context, string) (tender.FetchedBlob, error) {
	return tender.FetchedBlob{Bytes: s.data, Size: int64(len(s.data))}, nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Checkpoint.Dir = filepath.Join(t.TempDir(), "checkpoints")
	cfg.Sink.Blob.Enabled = true
	cfg.Sink.Blob.Provider = "local"
	cfg.Sink.Blob.BaseDir = filepath.Join(t.TempDir(), "blobs")
	return cfg
}

func archiveWithTender(t *testing.T, reestr string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notification_" + reestr + ".xml")
	require.NoError(t, err)
	_, err = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<notification>
  <purchaseNumber>%s</purchaseNumber>
  <purchaseObjectInfo>Office supplies</purchaseObjectInfo>
  <maxPrice>1500.00</maxPrice>
</notification>`, reestr)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestNewWiresPipelineAndSinks(t *testing.T) {
	cfg := testConfig(t)
	pub := memory.New()

	a, err := app.New(context.Background(), cfg, zap.NewNop(),
		app.WithQueryService(stubQuery{urls: []string{archiveURL}}),
		app.WithFetcher(stubFetcher{data: archiveWithTender(t, "0373100000124000001")}),
		app.WithPublisher(pub),
		app.WithRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)

	out, err := a.Acquirer().Search(context.Background(), tender.Query{Region: "77", ExactDate: "2024-01-15"})
	require.NoError(t, err)
	require.Equal(t, 1, out.TotalTenders)
	require.Equal(t, 1, out.ArchivesProcessed)

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, sink.EventTenderStored, msgs[0].Event)
	require.Contains(t, string(msgs[0].Data), "0373100000124000001")

	written := filepath.Join(cfg.Sink.Blob.BaseDir, "tenders", "0373100000124000001.json")
	_, err = os.Stat(written)
	require.NoError(t, err)

	require.NoError(t, a.Close(context.Background()))
	require.NoError(t, a.Close(context.Background()))
}

func TestNewCheckpointsRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	cfg.Checkpoint.Mirror = true

	a, err := app.New(context.Background(), cfg, zap.NewNop(),
		app.WithQueryService(stubQuery{}),
		app.WithFetcher(stubFetcher{}),
		app.WithRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	q := tender.Query{Region: "77", ExactDate: "2024-01-15", Subsystem: "PRIZ"}
	cp := tender.Checkpoint{
		State:             tender.AcquisitionState{Query: q, NextArchiveIndex: 2},
		RetryAfterSeconds: 600,
	}
	require.NoError(t, a.Checkpoints().Save(context.Background(), cp))

	saved, err := a.Checkpoints().Load(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 2, saved.Checkpoint.State.NextArchiveIndex)

	mirrored := filepath.Join(cfg.Sink.Blob.BaseDir, "checkpoints")
	entries, err := os.ReadDir(mirrored)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestNewFailsOnUnknownBlobProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sink.Blob.Provider = "ftp"

	_, err := app.New(context.Background(), cfg, zap.NewNop(), app.WithRegisterer(prometheus.NewRegistry()))
	require.Error(t, err)
	require.Contains(t, err.Error(), "blob sink")
}

func TestNewFailsOnMissingTokenFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.TokenFile = filepath.Join(t.TempDir(), "absent")

	_, err := app.New(context.Background(), cfg, zap.NewNop(), app.WithRegisterer(prometheus.NewRegistry()))
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}
