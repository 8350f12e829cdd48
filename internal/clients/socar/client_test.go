package socar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageResponse = `{"items":[{"id":"1","objectId":900,"title":"გაზის შეწყვეტა",
  "start":"2024-05-02T09:00:00","end":"2024-05-02T17:00:00","created":"2024-05-01T10:00:00",
  "type":2,"docflowCode":"DF-1",
  "detail":{"notificationDescription":"ბათუმის მუნიციპალიტეტში","notificationTitleEN":"Gas"}}],
  "totalCount":1,"pageIndex":1,"totalPages":1}`

func TestFetchCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, Origin, r.Header.Get("Origin"))
		assert.Equal(t, Origin, r.Header.Get("Referer"))
		assert.Equal(t, "1", r.URL.Query().Get("PageIndex"))
		assert.Equal(t, "100", r.URL.Query().Get("PageSize"))
		assert.Equal(t, "ბათუმი", r.URL.Query().Get("searchText"))
		_, _ = w.Write([]byte(pageResponse))
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL).FetchCity(context.Background(), "ბათუმი")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(900), items[0].ObjectID)
	assert.True(t, items[0].IsCity("ბათუმი"))
	assert.Equal(t, "DF-1", string(items[0].DocflowCode))
}

func TestGetOutages_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetOutages(context.Background(), 1, 10, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestURL(t *testing.T) {
	raw := NewClient("").URL(2, 50, "ქუთაისი")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "utilixwebapi.azurewebsites.net", u.Host)
	assert.Equal(t, "2", u.Query().Get("PageIndex"))
	assert.Equal(t, "ქუთაისი", u.Query().Get("searchText"))
}
