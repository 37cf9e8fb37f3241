package soap

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/antchfx/xmlquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

const okResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ns2:getDocsByOrgRegionResponse xmlns:ns2="http://zakupki.gov.ru/fz44/get-docs-ip/ws">
      <dataInfo>
        <archiveUrl>https://int44.zakupki.gov.ru/eis-integration/archive/1.zip</archiveUrl>
        <archiveUrl> https://int44.zakupki.gov.ru/eis-integration/archive/2.zip </archiveUrl>
      </dataInfo>
    </ns2:getDocsByOrgRegionResponse>
  </soap:Body>
</soap:Envelope>`

const faultResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Client</faultcode>
      <faultstring>Token is invalid</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

func regionRequestFixture() tender.QueryRequest {
	return tender.QueryRequest{
		Envelope:       tender.QueryEnvelope{ID: "req-1", CreateDateTime: "2024-01-15T09:30:00+03:00", Mode: "PROD"},
		Region:         "77",
		SubsystemType:  "PRIZ",
		DocumentType44: "epNotificationEF2020",
		ExactDate:      "2024-01-15",
	}
}

func newServer(t *testing.T, status int, response string, captured *[]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/eis-integration/services/getDocsIP", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if captured != nil {
			*captured = body
		}
		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return New(Config{
		WSDLURL: srv.URL + "/eis-integration/services/getDocsIP?wsdl",
		Token:   "secret-token",
	}, srv.Client(), zap.NewNop())
}

func TestArchiveURLsRegion(t *testing.T) {
	t.Parallel()

	var sent []byte
	srv := newServer(t, http.StatusOK, okResponse, &sent)

	urls, err := newTestClient(srv).ArchiveURLs(context.Background(), regionRequestFixture())
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://int44.zakupki.gov.ru/eis-integration/archive/1.zip",
		"https://int44.zakupki.gov.ru/eis-integration/archive/2.zip",
	}, urls)

	doc, err := xmlquery.Parse(bytes.NewReader(sent))
	require.NoError(t, err)
	text := func(expr string) string {
		n := xmlquery.FindOne(doc, expr)
		require.NotNil(t, n, expr)
		return n.InnerText()
	}
	require.Equal(t, "secret-token", text("//*[local-name()='Header']/individualPerson_token"))
	require.Equal(t, "req-1", text("//*[local-name()='getDocsByOrgRegionRequest']/index/id"))
	require.Equal(t, "PROD", text("//index/mode"))
	require.Equal(t, "77", text("//selectionParams/orgRegion"))
	require.Equal(t, "epNotificationEF2020", text("//selectionParams/documentType44"))
	require.Equal(t, "2024-01-15", text("//selectionParams/periodInfo/exactDate"))
}

func TestArchiveURLsRegistry(t *testing.T) {
	t.Parallel()

	var sent []byte
	srv := newServer(t, http.StatusOK, okResponse, &sent)

	req := tender.QueryRequest{
		Envelope:       tender.QueryEnvelope{ID: "req-2", Mode: "PROD"},
		SubsystemType:  "PRIZ",
		RegistryNumber: "0373200592025000025",
	}
	urls, err := newTestClient(srv).ArchiveURLs(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, urls, 2)
	require.Contains(t, string(sent), "getDocsByReestrNumberRequest")
	require.Contains(t, string(sent), "<registryNumber>0373200592025000025</registryNumber>")
	require.NotContains(t, string(sent), "orgRegion")
}

func TestArchiveURLsFault(t *testing.T) {
	t.Parallel()

	srv := newServer(t, http.StatusInternalServerError, faultResponse, nil)
	_, err := newTestClient(srv).ArchiveURLs(context.Background(), regionRequestFixture())

	var qerr *tender.QueryError
	require.ErrorAs(t, err, &qerr)
	require.Equal(t, "getDocsByOrgRegion", qerr.Op)
	require.Contains(t, err.Error(), "Token is invalid")
	require.Equal(t, tender.KindFatal, tender.Kind(err))
}

func TestArchiveURLsHTTPErrorAndMissingData(t *testing.T) {
	t.Parallel()

	srv := newServer(t, http.StatusBadGateway, "<html>bad gateway", nil)
	_, err := newTestClient(srv).ArchiveURLs(context.Background(), regionRequestFixture())
	require.ErrorContains(t, err, "http error: 502")

	empty := `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body><r/></soap:Body></soap:Envelope>`
	srv = newServer(t, http.StatusOK, empty, nil)
	_, err = newTestClient(srv).ArchiveURLs(context.Background(), regionRequestFixture())
	require.ErrorIs(t, err, errNoDataInfo)
}

func TestArchiveURLsEmptyDataInfo(t *testing.T) {
	t.Parallel()

	body := `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body><x><dataInfo/></x></soap:Body></soap:Envelope>`
	srv := newServer(t, http.StatusOK, body, nil)
	urls, err := newTestClient(srv).ArchiveURLs(context.Background(), regionRequestFixture())
	require.NoError(t, err)
	require.Empty(t, urls)
}

func TestEndpoint(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://int44.zakupki.gov.ru/eis-integration/services/getDocsIP", Config{}.Endpoint())
	require.Equal(t, "http://h/x", Config{WSDLURL: "http://h/x?wsdl"}.Endpoint())
}
