package profilestats

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// LeetCodeFetcher reads the aggregate solved counts from a public stats proxy.
type LeetCodeFetcher struct {
	client  *http.Client
	baseURL string
}

func NewLeetCodeFetcher(client *http.Client, baseURL string) *LeetCodeFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &LeetCodeFetcher{
		client:  client,
		baseURL: strings.TrimRight(orDefault(baseURL, DefaultLeetCodeBaseURL), "/"),
	}
}

type leetcodeStats struct {
	Status         string  `json:"status"`
	Message        string  `json:"message"`
	TotalSolved    int     `json:"totalSolved"`
	EasySolved     int     `json:"easySolved"`
	MediumSolved   int     `json:"mediumSolved"`
	HardSolved     int     `json:"hardSolved"`
	AcceptanceRate float64 `json:"acceptanceRate"`
	Ranking        int     `json:"ranking"`
}

func (f *LeetCodeFetcher) Fetch(ctx context.Context, handle string) ([]StatisticEntry, error) {
	if handle == "" {
		return nil, fmt.Errorf("leetcode: %w: empty handle", ErrMalformedPayload)
	}

	var data leetcodeStats
	if err := getJSON(ctx, f.client, f.baseURL+"/"+url.PathEscape(handle), nil, &data); err != nil {
		return nil, fmt.Errorf("leetcode: %w", err)
	}
	if data.Status != "success" {
		return nil, fmt.Errorf("leetcode: status %q: %s", data.Status, data.Message)
	}

	acceptance := "N/A"
	if data.AcceptanceRate != 0 {
		acceptance = strconv.FormatFloat(data.AcceptanceRate, 'f', -1, 64) + "%"
	}

	return []StatisticEntry{
		{Label: "Total Solved", Value: data.TotalSolved},
		{Label: "Easy", Value: data.EasySolved},
		{Label: "Medium", Value: data.MediumSolved},
		{Label: "Hard", Value: data.HardSolved},
		{Label: "Global Ranking", Value: data.Ranking},
		{Label: "Acceptance", Value: acceptance},
	}, nil
}
