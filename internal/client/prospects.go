package client

import (
	"context"
	"fmt"

	"github.com/freddy208/crmprospect/internal/http"
	"github.com/freddy208/crmprospect/pkg/crm"
)

// ProspectsClient implements crm.ProspectsClient.
type ProspectsClient struct {
	*ResourceClient[crm.Prospect, *crm.ProspectFilter, crm.ProspectCreateRequest, crm.ProspectUpdateRequest]
}

// NewProspectsClient creates a new prospects client.
func NewProspectsClient(httpClient *http.Client) *ProspectsClient {
	return &ProspectsClient{
		ResourceClient: NewResourceClient[crm.Prospect, *crm.ProspectFilter, crm.ProspectCreateRequest, crm.ProspectUpdateRequest](
			httpClient, "/prospects", "prospect", "prospects"),
	}
}

// Assign implements crm.ProspectsClient.Assign.
func (c *ProspectsClient) Assign(ctx context.Context, id, userID string) (*crm.Prospect, error) {
	path, err := c.itemPath(id)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Patch(ctx, path+"/assign", &crm.ProspectAssignRequest{AssignedToID: userID})
	if err != nil {
		return nil, fmt.Errorf("assigning prospect: %w", err)
	}

	prospect, err := decode[crm.Prospect](resp.Body, "prospect")
	if err != nil {
		return nil, fmt.Errorf("parsing prospect response: %w", err)
	}

	return prospect, nil
}

// Stats implements crm.ProspectsClient.Stats.
func (c *ProspectsClient) Stats(ctx context.Context, filter *crm.StatsFilter) (*crm.ProspectStats, error) {
	resp, err := c.httpClient.Get(ctx, "/prospects/stats", filter.ToValues())
	if err != nil {
		return nil, fmt.Errorf("getting prospect stats: %w", err)
	}

	stats, err := decode[crm.ProspectStats](resp.Body, "prospect stats")
	if err != nil {
		return nil, fmt.Errorf("parsing prospect stats: %w", err)
	}

	return stats, nil
}
