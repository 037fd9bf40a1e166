package hrsys_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/presence/modules/reconcile/infrastructure/hrsys"
	"github.com/iota-uz/presence/pkg/configuration"
)

func newTestClient(t *testing.T, handler http.Handler) *hrsys.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return hrsys.NewClient(configuration.HRSystemOptions{
		BaseURL:  srv.URL,
		APIKey:   "hr-key",
		PageSize: 2,
		Timeout:  5 * time.Second,
	})
}

func TestClient_FetchEmployees_WalksPages(t *testing.T) {
	pages := map[string]string{
		"1": `{"employees":[{"external_id":1,"first_name":"Ivan","last_name":"Petrenko","email":"ivan@corp.example","division":"IT Department","manager":{"external_id":4,"first_name":"Anna","last_name":"Kovalenko"},"custom_contact_handle":"@ivanp"},{"external_id":2,"first_name":"Olha","last_name":"Sydorenko"}]}`,
		"2": `{"employees":[{"external_id":3,"first_name":"Taras","last_name":"Bondar","hire_date":"2024-11-01"}]}`,
		"3": `{"employees":[]}`,
	}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/employees", r.URL.Path)
		require.Equal(t, "hr-key", r.Header.Get("X-Api-Key"))
		require.Equal(t, "2", r.URL.Query().Get("page_size"))
		body, ok := pages[r.URL.Query().Get("page")]
		require.True(t, ok, "unexpected page %s", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(body))
	}))

	employees, err := c.FetchEmployees(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 3)
	require.Equal(t, "Ivan Petrenko", employees[0].FullName())
	require.Equal(t, "IT Department", employees[0].Division)
	require.Equal(t, "@ivanp", employees[0].Contact)
	require.NotNil(t, employees[0].Manager)
	require.Equal(t, int64(4), employees[0].Manager.ID)
	require.Equal(t, "Anna Kovalenko", employees[0].ManagerName())
	require.Nil(t, employees[1].Manager)
	require.Empty(t, employees[1].ManagerName())
	require.Equal(t, "2024-11-01", employees[2].HireDate)
}

func TestClient_FetchEmployees_MidWalkFailureFailsFetch(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			_, _ = w.Write([]byte(`{"employees":[{"external_id":1,"first_name":"Ivan","last_name":"Petrenko"},{"external_id":2,"first_name":"Olha","last_name":"Sydorenko"}]}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.FetchEmployees(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "page 2")
}

func TestClient_FetchEmployees_EmptyDirectory(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"employees":[]}`))
	}))

	employees, err := c.FetchEmployees(context.Background())
	require.NoError(t, err)
	require.Empty(t, employees)
}

func TestClient_FetchEmployees_RetriesTransientFailures(t *testing.T) {
	var firstPageCalls int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			firstPageCalls++
			if firstPageCalls == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(fmt.Sprintf(`{"employees":[{"external_id":%d,"first_name":"Ivan","last_name":"Petrenko"}]}`, 1)))
			return
		}
		_, _ = w.Write([]byte(`{"employees":[]}`))
	}))

	employees, err := c.FetchEmployees(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 1)
	require.Equal(t, 2, firstPageCalls)
}
