package sync

import (
	"context"

	"routecrm-go/internal/aggregator"
)

// Delta is the fully accumulated change set for one linked item, ready for
// reconciliation.
type Delta struct {
	Added      []aggregator.RemoteTransaction
	Modified   []aggregator.RemoteTransaction
	RemovedIDs []string
	NextCursor string
}

// FetchDelta walks the provider's cursor-paginated change feed to
// completion. Each page's returned cursor feeds the next call; the loop ends
// strictly on the provider's has-more flag, never on an empty page. Any page
// failure aborts the whole walk so the stored cursor is not advanced past
// pages we never saw.
func FetchDelta(ctx context.Context, client aggregator.Client, accessToken string, cursor *string) (*Delta, error) {
	cur := ""
	if cursor != nil {
		cur = *cursor
	}

	delta := &Delta{}
	for {
		page, err := client.FetchDeltaPage(ctx, accessToken, cur)
		if err != nil {
			return nil, err
		}

		delta.Added = append(delta.Added, page.Added...)
		delta.Modified = append(delta.Modified, page.Modified...)
		delta.RemovedIDs = append(delta.RemovedIDs, page.RemovedIDs...)

		cur = page.NextCursor
		if !page.HasMore {
			break
		}
	}

	delta.NextCursor = cur
	return delta, nil
}
