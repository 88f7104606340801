package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const enterpriseOrgsQuery = `
query($slug: String!, $cursor: String) {
  enterprise(slug: $slug) {
    organizations(first: 100, after: $cursor) {
      pageInfo { hasNextPage endCursor }
      nodes { login }
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type enterpriseOrgsResponse struct {
	Data struct {
		Enterprise struct {
			Organizations struct {
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
				Nodes []struct {
					Login string `json:"login"`
				} `json:"nodes"`
			} `json:"organizations"`
		} `json:"enterprise"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ListEnterpriseOrgs resolves the organization logins of a GHEC enterprise
// through GraphQL, following cursors until exhausted.
func (c *Client) ListEnterpriseOrgs(ctx context.Context, enterpriseSlug string) ([]string, error) {
	var logins []string
	var cursor *string
	for {
		vars := map[string]any{"slug": enterpriseSlug, "cursor": cursor}
		var resp enterpriseOrgsResponse
		if err := c.postGraphQL(ctx, graphqlRequest{Query: enterpriseOrgsQuery, Variables: vars}, &resp); err != nil {
			return nil, fmt.Errorf("enterprise orgs: %w", err)
		}
		if len(resp.Errors) > 0 {
			return nil, fmt.Errorf("enterprise orgs: graphql: %s", resp.Errors[0].Message)
		}
		orgs := resp.Data.Enterprise.Organizations
		for _, node := range orgs.Nodes {
			logins = append(logins, node.Login)
		}
		if !orgs.PageInfo.HasNextPage {
			break
		}
		end := orgs.PageInfo.EndCursor
		cursor = &end
	}
	return logins, nil
}

func (c *Client) postGraphQL(ctx context.Context, payload graphqlRequest, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Status: resp.StatusCode, URL: c.graphqlURL, Body: string(raw)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
