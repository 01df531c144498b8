package twitter

import (
	"context"
)

// PageFunc fetches one page of statuses newer than page.SinceID and no newer than
// page.MaxID (when non-zero).
type PageFunc func(ctx context.Context, page TimelinePage) ([]Status, error)

// CollectStatuses walks an id-paginated timeline backwards from the newest status
// using max_id, stopping at sinceID. At most limit statuses are returned (zero means
// no limit). The result keeps the API order: newest first.
func CollectStatuses(ctx context.Context, fetch PageFunc, sinceID int64, pageSize, limit int) ([]Status, error) {
	var out []Status
	var maxID int64
	for {
		page, err := fetch(ctx, TimelinePage{SinceID: sinceID, MaxID: maxID, Count: pageSize})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return out, nil
		}

		lowest := page[0].ID
		for _, st := range page {
			if st.ID < lowest {
				lowest = st.ID
			}
			if st.ID <= sinceID {
				continue
			}
			out = append(out, st)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}

		next := lowest - 1
		if next <= sinceID || (maxID != 0 && next >= maxID) {
			return out, nil
		}
		maxID = next
	}
}

// CollectMessageEvents pages through direct message events (newest first) until it
// reaches an event at or below sinceID, the cursor runs out, or limit events were
// collected.
func CollectMessageEvents(ctx context.Context, c *Client, sinceID int64, limit int) ([]MessageEvent, error) {
	var out []MessageEvent
	cursor := ""
	for {
		list, err := DirectMessagesEventsList(ctx, c, cursor, 50)
		if err != nil {
			return nil, err
		}
		reachedOld := false
		for _, ev := range list.Events {
			if ev.Type != "message_create" {
				continue
			}
			id, err := ev.NumericID()
			if err != nil {
				continue
			}
			if id <= sinceID {
				reachedOld = true
				continue
			}
			out = append(out, ev)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if reachedOld || list.NextCursor == "" || list.NextCursor == cursor {
			return out, nil
		}
		cursor = list.NextCursor
	}
}
