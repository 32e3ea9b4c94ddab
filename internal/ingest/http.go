package ingest

import (
	"context"
	"errors"
	"net/http"

	"github.com/AngelCh415/campaign-dash/internal/utils"
)

// GetJSONWithRetry retries transport errors, 429 and 5xx answers with
// exponential backoff and jitter. Other statuses fail at once.
func GetJSONWithRetry(ctx context.Context, c HTTPClient, b utils.Backoff, url string, header http.Header, dst any) error {
	return b.Do(ctx, func(int) error {
		err := getJSON(ctx, c, url, header, dst)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return utils.Permanent(err)
		}
		return err
	})
}
