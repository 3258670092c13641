package profilestats

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CodeforcesFetcher reads user.info and user.rating from the public API.
type CodeforcesFetcher struct {
	client  *http.Client
	baseURL string
}

func NewCodeforcesFetcher(client *http.Client, baseURL string) *CodeforcesFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &CodeforcesFetcher{
		client:  client,
		baseURL: strings.TrimRight(orDefault(baseURL, DefaultCodeforcesBaseURL), "/"),
	}
}

type codeforcesUser struct {
	Rating        *int    `json:"rating"`
	MaxRating     *int    `json:"maxRating"`
	Rank          *string `json:"rank"`
	FriendOfCount *int    `json:"friendOfCount"`
}

type codeforcesInfo struct {
	Status  string           `json:"status"`
	Comment string           `json:"comment"`
	Result  []codeforcesUser `json:"result"`
}

type codeforcesRating struct {
	Status string              `json:"status"`
	Result []codeforcesContest `json:"result"`
}

// Only the history length matters.
type codeforcesContest struct {
	ContestID int `json:"contestId"`
}

func (f *CodeforcesFetcher) Fetch(ctx context.Context, handle string) ([]StatisticEntry, error) {
	if handle == "" {
		return nil, fmt.Errorf("codeforces: %w: empty handle", ErrMalformedPayload)
	}

	var info codeforcesInfo
	infoURL := fmt.Sprintf("%s/api/user.info?handles=%s", f.baseURL, url.QueryEscape(handle))
	if err := getEnvelope(ctx, f.client, infoURL, &info); err != nil {
		return nil, fmt.Errorf("codeforces user.info: %w", err)
	}
	if info.Status != "OK" {
		return nil, fmt.Errorf("codeforces user.info: %w: status %q: %s", ErrUpstreamStatus, info.Status, info.Comment)
	}
	if len(info.Result) == 0 {
		return nil, fmt.Errorf("codeforces user.info: %w: empty result", ErrMalformedPayload)
	}
	user := info.Result[0]

	// Codeforces answers FAILED with a 400. Only the contest count depends on it.
	var rating codeforcesRating
	ratingURL := fmt.Sprintf("%s/api/user.rating?handle=%s", f.baseURL, url.QueryEscape(handle))
	if err := getEnvelope(ctx, f.client, ratingURL, &rating); err != nil {
		return nil, fmt.Errorf("codeforces user.rating: %w", err)
	}

	var contests any = "N/A"
	if rating.Status == "OK" {
		contests = len(rating.Result)
	}

	return []StatisticEntry{
		{Label: "Current Rating", Value: intOr(user.Rating, "Unrated")},
		{Label: "Max Rating", Value: intOr(user.MaxRating, "N/A")},
		{Label: "Rank", Value: rankOf(user.Rank)},
		{Label: "Contests", Value: contests},
		{Label: "Friends", Value: intOr(user.FriendOfCount, "N/A")},
		{Label: "Registered", Value: "Verified"},
	}, nil
}

func rankOf(r *string) any {
	if r == nil || *r == "" {
		return "N/A"
	}
	// Casers carry state, so each call gets its own.
	return cases.Upper(language.Und).String(*r)
}

// intOr treats a missing or zero value as absent.
func intOr(v *int, absent string) any {
	if v == nil || *v == 0 {
		return absent
	}
	return *v
}
