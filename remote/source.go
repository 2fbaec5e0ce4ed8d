package remote

import (
	"context"
	"fmt"

	"github.com/hupe1980/nmcp/branch"
	"github.com/hupe1980/nmcp/model"
)

// Pending returns the entries waiting to be generated. Entries without a
// usable skeleton segment id are dropped.
func (c *Client) Pending(ctx context.Context) ([]model.PendingItem, error) {
	data, err := execute[pendingData](ctx, c, pendingQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: pending: %w", err)
	}

	items := make([]model.PendingItem, 0, len(data.PendingPrecomputed))
	for _, e := range data.PendingPrecomputed {
		if e.SkeletonSegmentID == nil || *e.SkeletonSegmentID < 0 {
			c.logger.Warn("skipping pending entry without skeleton id", "id", e.ID)
			continue
		}
		items = append(items, model.PendingItem{
			ID:               e.ID,
			SkeletonID:       uint64(*e.SkeletonSegmentID),
			ReconstructionID: e.ReconstructionID,
		})
	}
	return items, nil
}

// MarkGenerated reports a successfully generated entry.
func (c *Client) MarkGenerated(ctx context.Context, id string) error {
	return c.update(ctx, id, versionGenerated)
}

// MarkFailed reports an entry that could not be generated.
func (c *Client) MarkFailed(ctx context.Context, id string) error {
	return c.update(ctx, id, versionFailed)
}

func (c *Client) update(ctx context.Context, id string, version int) error {
	vars := map[string]any{
		"id":          id,
		"version":     version,
		"generatedAt": c.now().UnixMilli(),
	}
	if _, err := execute[updateData](ctx, c, updateMutation, vars); err != nil {
		return fmt.Errorf("remote: update %s: %w", id, err)
	}
	return nil
}

// Header returns the metadata of a reconstruction. The label is the neuron's
// idString and the strain its sample genotype.
func (c *Client) Header(ctx context.Context, reconstructionID string) (model.Header, error) {
	vars := map[string]any{
		"id":    reconstructionID,
		"input": map[string]any{"parts": []string{"header"}},
	}

	data, err := execute[reconstructionData](ctx, c, reconstructionQuery, vars)
	if err != nil {
		return model.Header{}, fmt.Errorf("remote: header %s: %w", reconstructionID, err)
	}
	if data.ReconstructionDataChunked == nil || data.ReconstructionDataChunked.Header == nil {
		return model.Header{}, fmt.Errorf("%w: header %s", ErrNoData, reconstructionID)
	}

	return data.ReconstructionDataChunked.Header.toModel(), nil
}

// FetchPage implements branch.Fetcher.
func (c *Client) FetchPage(ctx context.Context, reconstructionID string, b model.Branch, offset, limit int) (branch.Page, error) {
	input := map[string]any{"parts": []string{b.String()}}
	switch b {
	case model.Axon:
		input["axonOffset"] = offset
		input["axonLimit"] = limit
	case model.Dendrite:
		input["dendriteOffset"] = offset
		input["dendriteLimit"] = limit
	default:
		return branch.Page{}, fmt.Errorf("remote: unknown branch %s", b)
	}

	vars := map[string]any{"id": reconstructionID, "input": input}
	data, err := execute[reconstructionData](ctx, c, reconstructionQuery, vars)
	if err != nil {
		return branch.Page{}, err
	}

	chunk := data.ReconstructionDataChunked
	if chunk == nil {
		return branch.Page{}, nil
	}

	raw, info := chunk.Axon, chunk.AxonChunkInfo
	if b == model.Dendrite {
		raw, info = chunk.Dendrite, chunk.DendriteChunkInfo
	}

	points, err := model.ConvertPoints(raw, offset)
	if err != nil {
		return branch.Page{}, err
	}

	return branch.Page{Points: points, HasMore: info != nil && info.HasMore}, nil
}

var _ branch.Fetcher = (*Client)(nil)
