package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/copilot-pulse/backend/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.URL+"/graphql", "test-token", zap.NewNop()), srv
}

func TestListTeamsPaginatesUntilEmptyPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/teams", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `[{"id":1,"slug":"platform"},{"id":2,"slug":"backend","parent":{"id":1,"slug":"platform"}}]`)
		case "2":
			fmt.Fprint(w, `[{"id":3,"slug":"api","parent":{"id":2,"slug":"backend"}}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	})
	client, _ := newTestClient(t, mux)

	teams, err := client.ListTeams(context.Background(), models.OrgRef{Slug: "acme"})
	require.NoError(t, err)
	require.Len(t, teams, 3)
	assert.Equal(t, "backend", teams[1].Slug)
	require.NotNil(t, teams[1].Parent)
	assert.Equal(t, int64(1), teams[1].Parent.ID)
}

func TestListTeamsStandaloneReturnsEmpty(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux())
	teams, err := client.ListTeams(context.Background(), models.OrgRef{Slug: "corp", Standalone: true})
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestUnauthorizedAborts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.ListTeams(context.Background(), models.OrgRef{Slug: "acme"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTeamMetricsNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.TeamMetrics(context.Background(), models.OrgRef{Slug: "acme"}, "tiny-team")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestListSeatsAccumulatesPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/copilot/billing/seats", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"total_seats":3,"seats":[{"assignee":{"login":"a"}},{"assignee":{"login":"b"}}]}`)
		case "2":
			fmt.Fprint(w, `{"total_seats":3,"seats":[{"assignee":{"login":"c"}}]}`)
		default:
			fmt.Fprint(w, `{"total_seats":3,"seats":[]}`)
		}
	})
	client, _ := newTestClient(t, mux)

	page, err := client.ListSeats(context.Background(), models.OrgRef{Slug: "acme"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalSeats)
	require.Len(t, page.Seats, 3)
	assert.Equal(t, "c", page.Seats[2].Assignee.Login)
}

func TestEnterprisePathForStandalone(t *testing.T) {
	var gotPath string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `[]`)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.OrgMetrics(context.Background(), models.OrgRef{Slug: "corp", Standalone: true})
	require.NoError(t, err)
	assert.Equal(t, "/enterprises/corp/copilot/metrics", gotPath)
}

func TestLatestUserMetricsDownloadsNDJSON(t *testing.T) {
	mux := http.NewServeMux()
	var reportURL string
	mux.HandleFunc("/orgs/acme/copilot/metrics/reports/users-28-day", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]reportLink{
			{ReportDay: "2025-05-01", DownloadLinks: []string{reportURL + "/old"}},
			{ReportDay: "2025-06-01", DownloadLinks: []string{reportURL + "/blob"}},
		})
	})
	mux.HandleFunc("/blob", func(w http.ResponseWriter, r *http.Request) {
		// Presigned links carry no bearer header.
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprintln(w, `{"user_login":"octocat","day":"2025-06-01","user_initiated_interaction_count":5,"used_chat":true}`)
		fmt.Fprintln(w, `{"user_login":"hubot","day":"2025-06-01","code_generation_activity_count":7}`)
	})
	client, srv := newTestClient(t, mux)
	reportURL = srv.URL

	rows, err := client.LatestUserMetrics(context.Background(), models.OrgRef{Slug: "acme"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "octocat", rows[0].UserLogin)
	assert.Equal(t, 5, rows[0].UserInitiatedInteractionCount)
	assert.True(t, rows[0].UsedChat)
	assert.Equal(t, 7, rows[1].CodeGenerationActivityCount)
}

func TestLatestUserMetricsParsesJSONArray(t *testing.T) {
	mux := http.NewServeMux()
	var reportURL string
	mux.HandleFunc("/orgs/acme/copilot/metrics/reports/users-28-day", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]reportLink{{DownloadLink: reportURL + "/blob"}})
	})
	mux.HandleFunc("/blob", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"user_login":"octocat","day":"2025-06-01","extra_field":"kept"}]`)
	})
	client, srv := newTestClient(t, mux)
	reportURL = srv.URL

	rows, err := client.LatestUserMetrics(context.Background(), models.OrgRef{Slug: "acme"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "kept", rows[0].Extra["extra_field"])
}

func TestListEnterpriseOrgsFollowsCursor(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		calls++
		if req.Variables["cursor"] == nil {
			fmt.Fprint(w, `{"data":{"enterprise":{"organizations":{"pageInfo":{"hasNextPage":true,"endCursor":"c1"},"nodes":[{"login":"one"}]}}}}`)
			return
		}
		assert.Equal(t, "c1", req.Variables["cursor"])
		fmt.Fprint(w, `{"data":{"enterprise":{"organizations":{"pageInfo":{"hasNextPage":false,"endCursor":""},"nodes":[{"login":"two"}]}}}}`)
	})
	client, _ := newTestClient(t, mux)

	logins, err := client.ListEnterpriseOrgs(context.Background(), "big-corp")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, logins)
	assert.Equal(t, 2, calls)
}
