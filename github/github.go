// Package github fetches repository metadata to enrich saved projects.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

type Repo struct {
	Owner       string
	Name        string
	Description string
	Stars       int
	Language    string
	Homepage    string
}

type repoAPIResponse struct {
	Description     string `json:"description"`
	StargazersCount int    `json:"stargazers_count"`
	Language        string `json:"language"`
	Homepage        string `json:"homepage"`
}

var (
	githubToken         = os.Getenv("GITHUB_TOKEN")
	githubBaseURL       = "https://api.github.com"
	authorizationHeader = "Authorization"
	acceptHeader        = "Accept"
)

var errNotARepoURL = errors.New("not a github repository URL")

// ParseRepoURL extracts owner and repository name from a github.com link.
func ParseRepoURL(link string) (string, string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", "", errNotARepoURL
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host != "github.com" {
		return "", "", errNotARepoURL
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errNotARepoURL
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

func Fetch(ctx context.Context, owner, name string) (*Repo, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/repos/%s/%s", githubBaseURL, owner, name),
		http.NoBody,
	)
	if err != nil {
		return nil, err
	}

	req.Header.Add(acceptHeader, "application/vnd.github+json")
	if githubToken != "" {
		req.Header.Add(authorizationHeader, "Bearer "+githubToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var repo repoAPIResponse
	if err := json.Unmarshal(body, &repo); err != nil {
		return nil, err
	}

	return &Repo{
		Owner:       owner,
		Name:        name,
		Description: repo.Description,
		Stars:       repo.StargazersCount,
		Language:    repo.Language,
		Homepage:    repo.Homepage,
	}, nil
}
