package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/freddy208/crmprospect/pkg/query"
)

// Prospects returns the prospects matching filter. A nil filter lists everything
// the server shows by default.
func (d *Dashboard) Prospects(ctx context.Context, filter *crm.ProspectFilter) ([]crm.Prospect, error) {
	return d.prospects.List(ctx, filter)
}

// Prospect returns one prospect. A missing prospect yields an error matching
// crm.ErrNotFound, which Notify turns into a not-found state.
func (d *Dashboard) Prospect(ctx context.Context, id string) (*crm.Prospect, error) {
	return d.prospects.Get(ctx, id)
}

// ProspectKey returns the cache key of a prospect detail.
func (d *Dashboard) ProspectKey(id string) query.Key {
	return d.prospects.DetailKey(id)
}

// ProspectsKey returns the cache key of a prospect list.
func (d *Dashboard) ProspectsKey(filter *crm.ProspectFilter) query.Key {
	return d.prospects.ListKey(filter)
}

// CreateProspect creates a prospect and invalidates the prospect lists and stats.
func (d *Dashboard) CreateProspect(ctx context.Context, request *crm.ProspectCreateRequest) query.Result[*crm.Prospect] {
	return d.prospects.Create(ctx, request)
}

// UpdateProspect sends a partial update of a prospect.
func (d *Dashboard) UpdateProspect(ctx context.Context, id string, request *crm.ProspectUpdateRequest) query.Result[*crm.Prospect] {
	return d.prospects.Update(ctx, id, request)
}

// RemoveProspect soft-deletes a prospect.
func (d *Dashboard) RemoveProspect(ctx context.Context, id string) query.Result[*crm.Prospect] {
	return d.prospects.Remove(ctx, id)
}

// AssignProspect assigns a prospect to a user.
func (d *Dashboard) AssignProspect(ctx context.Context, id, userID string) query.Result[*crm.Prospect] {
	err := d.require("assign prospect", crm.PermProspectsAssign)
	if err != nil {
		return query.Result[*crm.Prospect]{Err: err}
	}

	err = crm.Validate(&crm.ProspectAssignRequest{AssignedToID: userID})
	if err != nil {
		return query.Result[*crm.Prospect]{Err: err}
	}

	return query.Mutate(ctx, d.store, func(ctx context.Context) (*crm.Prospect, error) {
		return d.client.Prospects().Assign(ctx, id, userID)
	}, query.Updates(d.ProspectKey(id)), query.Invalidates(d.prospects.invalidates()...))
}

// AssignResult is the outcome of one assignment of a bulk operation.
type AssignResult struct {
	ID       string
	Prospect *crm.Prospect
	Err      error
	Duration time.Duration
}

// AssignProspects assigns every prospect in ids to userID, keeping at most the
// configured number of requests in flight. Results are in the order of ids; a
// failed assignment does not stop the others.
func (d *Dashboard) AssignProspects(ctx context.Context, ids []string, userID string) ([]AssignResult, error) {
	err := d.require("assign prospects", crm.PermProspectsAssign)
	if err != nil {
		return nil, err
	}

	err = crm.Validate(&crm.ProspectAssignRequest{AssignedToID: userID})
	if err != nil {
		return nil, err
	}

	results := make([]AssignResult, len(ids))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.concurrency)

	for index, id := range ids {
		group.Go(func() error {
			start := time.Now()

			result := query.Mutate(groupCtx, d.store, func(ctx context.Context) (*crm.Prospect, error) {
				return d.client.Prospects().Assign(ctx, id, userID)
			}, query.Updates(d.ProspectKey(id)))

			results[index] = AssignResult{
				ID:       id,
				Prospect: result.Value,
				Err:      result.Err,
				Duration: time.Since(start),
			}

			return nil
		})
	}

	// Workers never return an error; per-item failures are in results.
	_ = group.Wait()

	d.store.Invalidate(d.prospects.invalidates()...)

	failed := 0

	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}

	if failed > 0 && d.logger != nil {
		d.logger.Warn("bulk assignment finished with failures", map[string]interface{}{
			"total":  len(ids),
			"failed": failed,
		})
	}

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("assigning prospects: %w", err)
	}

	return results, nil
}

// ProspectStats returns the aggregate counters of the home page. They stay fresh
// for a minute.
func (d *Dashboard) ProspectStats(ctx context.Context, filter *crm.StatsFilter) (*crm.ProspectStats, error) {
	key := query.StatsKey(EntityProspects, filter.ToValues())

	return query.Query(ctx, d.store, key, func(ctx context.Context) (*crm.ProspectStats, error) {
		return d.client.Prospects().Stats(ctx, filter)
	}, query.WithStaleTime(constants.StatsStaleTime))
}

// ProspectActivity is the detail page of a prospect: the prospect and its
// comments and interactions, loaded concurrently.
type ProspectActivity struct {
	Prospect     *crm.Prospect
	Comments     []crm.Comment
	Interactions []crm.Interaction
}

// ProspectActivity loads a prospect with its comments and interactions. The first
// failure cancels the other requests.
func (d *Dashboard) ProspectActivity(ctx context.Context, id string) (*ProspectActivity, error) {
	activity := &ProspectActivity{}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		prospect, err := d.Prospect(groupCtx, id)
		activity.Prospect = prospect

		return err
	})

	group.Go(func() error {
		comments, err := d.comments.List(groupCtx, &crm.CommentFilter{ProspectID: id})
		activity.Comments = comments

		return err
	})

	group.Go(func() error {
		interactions, err := d.interactions.List(groupCtx, &crm.InteractionFilter{ProspectID: id})
		activity.Interactions = interactions

		return err
	})

	err := group.Wait()
	if err != nil {
		return nil, err
	}

	return activity, nil
}
