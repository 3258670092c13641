package profilestats

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
)

func jsonHandler(routes map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.RequestURI()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

func TestGitHubFetcherNormalizes(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		jsonHandler(map[string]string{
			"/users/foo": `{"login":"foo","public_repos":10,"followers":7,"following":3,"public_gists":1,"created_at":"2019-04-02T10:00:00Z"}`,
			"/users/foo/repos?per_page=100": `[{"stargazers_count":2},{"stargazers_count":3}]`,
		})(w, r)
	}))
	defer srv.Close()

	f := NewGitHubFetcher(srv.Client(), srv.URL, "secret")
	got, err := f.Fetch(context.Background(), "foo")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	want := []StatisticEntry{
		{Label: "Repositories", Value: 10},
		{Label: "Stars Earned", Value: 5},
		{Label: "Followers", Value: 7},
		{Label: "Following", Value: 3},
		{Label: "Public Gists", Value: 1},
		{Label: "Created At", Value: 2019},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %#v, want %#v", got, want)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization = %q", gotAuth)
	}
}

func TestGitHubNoPublicRepos(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(map[string]string{
		"/users/foo":                    `{"login":"foo","public_repos":0,"followers":0,"created_at":"2019-04-02T10:00:00Z"}`,
		"/users/foo/repos?per_page=100": `[]`,
	}))
	defer srv.Close()

	got, err := NewGitHubFetcher(srv.Client(), srv.URL, "").Fetch(context.Background(), "foo")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got[0] != (StatisticEntry{Label: "Repositories", Value: "N/A"}) {
		t.Fatalf("repositories = %#v, want N/A", got[0])
	}
	if got[2] != (StatisticEntry{Label: "Followers", Value: 0}) {
		t.Fatalf("followers = %#v, want 0", got[2])
	}
}

func TestGitHubFetcherErrors(t *testing.T) {
	tests := []struct {
		name   string
		routes map[string]string
	}{
		{"user not found", map[string]string{}},
		{"missing fields", map[string]string{
			"/users/foo":                    `{"message":"moved"}`,
			"/users/foo/repos?per_page=100": `[]`,
		}},
		{"repos not a list", map[string]string{
			"/users/foo":                    `{"login":"foo","public_repos":1,"created_at":"2019-04-02T10:00:00Z"}`,
			"/users/foo/repos?per_page=100": `{"message":"API rate limit exceeded"}`,
		}},
		{"bad json", map[string]string{
			"/users/foo": `{"login":`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(jsonHandler(tt.routes))
			defer srv.Close()

			_, err := NewGitHubFetcher(srv.Client(), srv.URL, "").Fetch(context.Background(), "foo")
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestGitHubStarsFlowThroughAggregator(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(map[string]string{
		"/users/foo": `{"login":"foo","public_repos":10,"created_at":"2020-01-01T00:00:00Z"}`,
		"/users/foo/repos?per_page=100": `[{"stargazers_count":2},{"stargazers_count":3}]`,
	}))
	defer srv.Close()

	agg := NewDefault(HTTPConfig{Client: srv.Client(), GitHubBaseURL: srv.URL}, WithLogger(quietLogger()))
	stats, _ := agg.Aggregate(context.Background(), []ProfileDescriptor{{
		ID:                 "github",
		PlatformKind:       PlatformGitHub,
		Handle:             "foo",
		FallbackStatistics: fallback("Repositories", "25+"),
	}})

	entries := stats["github"]
	if len(entries) < 2 {
		t.Fatalf("entries = %#v", entries)
	}
	if entries[0] != (StatisticEntry{Label: "Repositories", Value: 10}) {
		t.Errorf("entries[0] = %#v", entries[0])
	}
	if entries[1] != (StatisticEntry{Label: "Stars Earned", Value: 5}) {
		t.Errorf("entries[1] = %#v", entries[1])
	}
}

func TestLeetCodeFetcherNormalizes(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(map[string]string{
		"/foo": `{"status":"success","totalSolved":320,"easySolved":110,"mediumSolved":160,"hardSolved":50,"acceptanceRate":65.43,"ranking":123456}`,
	}))
	defer srv.Close()

	got, err := NewLeetCodeFetcher(srv.Client(), srv.URL).Fetch(context.Background(), "foo")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	want := []StatisticEntry{
		{Label: "Total Solved", Value: 320},
		{Label: "Easy", Value: 110},
		{Label: "Medium", Value: 160},
		{Label: "Hard", Value: 50},
		{Label: "Global Ranking", Value: 123456},
		{Label: "Acceptance", Value: "65.43%"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %#v, want %#v", got, want)
	}
}

func TestLeetCodeMissingAcceptance(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(map[string]string{
		"/foo": `{"status":"success","totalSolved":1}`,
	}))
	defer srv.Close()

	got, err := NewLeetCodeFetcher(srv.Client(), srv.URL).Fetch(context.Background(), "foo")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if last := got[len(got)-1]; last.Value != "N/A" {
		t.Fatalf("acceptance = %#v, want N/A", last.Value)
	}
}

func TestLeetCodeErrorStatusUsesFallback(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(map[string]string{
		"/foo": `{"status":"error","message":"user does not exist"}`,
	}))
	defer srv.Close()

	fb := []StatisticEntry{
		{Label: "Total Solved", Value: "300+"},
		{Label: "Easy", Value: "100+"},
	}
	agg := NewDefault(HTTPConfig{Client: srv.Client(), LeetCodeBaseURL: srv.URL}, WithLogger(quietLogger()))
	stats, outcomes := agg.Aggregate(context.Background(), []ProfileDescriptor{{
		ID:                 "leetcode",
		PlatformKind:       PlatformLeetCode,
		Handle:             "foo",
		FallbackStatistics: fb,
	}})

	if !reflect.DeepEqual(stats["leetcode"], fb) {
		t.Fatalf("leetcode = %#v, want fallback %#v", stats["leetcode"], fb)
	}
	if outcomes[0].Source != SourceFallback {
		t.Fatalf("source = %s", outcomes[0].Source)
	}
}

func TestLeetCodeServerErrorWrapsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewLeetCodeFetcher(srv.Client(), srv.URL).Fetch(context.Background(), "foo")
	if !errors.Is(err, ErrUpstreamStatus) {
		t.Fatalf("err = %v, want ErrUpstreamStatus", err)
	}
}

func TestCodeforcesFetcherNormalizes(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(map[string]string{
		"/api/user.info?handles=foo": `{"status":"OK","result":[{"handle":"foo","rating":1234,"maxRating":1301,"rank":"pupil","friendOfCount":9}]}`,
		"/api/user.rating?handle=foo": `{"status":"OK","result":[{"contestId":1},{"contestId":2},{"contestId":3}]}`,
	}))
	defer srv.Close()

	got, err := NewCodeforcesFetcher(srv.Client(), srv.URL).Fetch(context.Background(), "foo")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	want := []StatisticEntry{
		{Label: "Current Rating", Value: 1234},
		{Label: "Max Rating", Value: 1301},
		{Label: "Rank", Value: "PUPIL"},
		{Label: "Contests", Value: 3},
		{Label: "Friends", Value: 9},
		{Label: "Registered", Value: "Verified"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %#v, want %#v", got, want)
	}
}

func TestCodeforcesUnratedUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/user.info":
			fmt.Fprint(w, `{"status":"OK","result":[{"handle":"foo"}]}`)
		case "/api/user.rating":
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"status":"FAILED","comment":"Call limit exceeded"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	got, err := NewCodeforcesFetcher(srv.Client(), srv.URL).Fetch(context.Background(), "foo")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	byLabel := map[string]any{}
	for _, e := range got {
		byLabel[e.Label] = e.Value
	}
	checks := map[string]any{
		"Current Rating": "Unrated",
		"Max Rating":     "N/A",
		"Rank":           "N/A",
		"Contests":       "N/A",
		"Friends":        "N/A",
		"Registered":     "Verified",
	}
	for label, want := range checks {
		if byLabel[label] != want {
			t.Errorf("%s = %#v, want %#v", label, byLabel[label], want)
		}
	}
}

func TestCodeforcesInfoFailureSkipsRating(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"handle not found", http.StatusBadRequest, `{"status":"FAILED","comment":"handles: User with handle foo not found"}`},
		{"empty result", http.StatusOK, `{"status":"OK","result":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ratingCalls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/user.rating" {
					ratingCalls.Add(1)
					fmt.Fprint(w, `{"status":"OK","result":[]}`)
					return
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			if _, err := NewCodeforcesFetcher(srv.Client(), srv.URL).Fetch(context.Background(), "foo"); err == nil {
				t.Fatal("expected error")
			}
			if n := ratingCalls.Load(); n != 0 {
				t.Fatalf("user.rating called %d times after user.info failed", n)
			}
		})
	}
}

func TestCodeforcesRatingOutageUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/user.rating" {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, "<html>bad gateway</html>")
			return
		}
		fmt.Fprint(w, `{"status":"OK","result":[{"rating":1500}]}`)
	}))
	defer srv.Close()

	_, err := NewCodeforcesFetcher(srv.Client(), srv.URL).Fetch(context.Background(), "foo")
	if !errors.Is(err, ErrUpstreamStatus) {
		t.Fatalf("err = %v, want ErrUpstreamStatus", err)
	}
}

func TestCodeforcesInfoFailure(t *testing.T) {
	tests := []struct {
		name   string
		routes map[string]string
	}{
		{"status failed", map[string]string{
			"/api/user.info?handles=foo":  `{"status":"FAILED","comment":"handles: User with handle foo not found"}`,
			"/api/user.rating?handle=foo": `{"status":"FAILED"}`,
		}},
		{"empty result", map[string]string{
			"/api/user.info?handles=foo":  `{"status":"OK","result":[]}`,
			"/api/user.rating?handle=foo": `{"status":"OK","result":[]}`,
		}},
		{"rating unreachable", map[string]string{
			"/api/user.info?handles=foo": `{"status":"OK","result":[{"rating":1500}]}`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(jsonHandler(tt.routes))
			defer srv.Close()

			if _, err := NewCodeforcesFetcher(srv.Client(), srv.URL).Fetch(context.Background(), "foo"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFetchersRejectEmptyHandle(t *testing.T) {
	fetchers := map[string]Fetcher{
		"github":     NewGitHubFetcher(nil, "http://127.0.0.1:0", ""),
		"leetcode":   NewLeetCodeFetcher(nil, "http://127.0.0.1:0"),
		"codeforces": NewCodeforcesFetcher(nil, "http://127.0.0.1:0"),
	}
	for name, f := range fetchers {
		if _, err := f.Fetch(context.Background(), ""); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("%s: err = %v, want ErrMalformedPayload", name, err)
		}
	}
}
