package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopsync/backend/internal/domain/integration"
	"go.uber.org/zap"
)

// GetAllPages fetches a listing page by page while pages come back full.
// It stops at the configured page ceiling even if the storefront keeps
// returning full pages, and reports the truncation. On error the items read
// so far are returned with the report.
func (c *Client) GetAllPages(ctx context.Context, path string, query url.Values, perPage int) ([]json.RawMessage, integration.PageReport, error) {
	if perPage <= 0 {
		perPage = c.cfg.PerPage
	}
	var (
		items  []json.RawMessage
		report integration.PageReport
	)

	for page := 1; page <= c.cfg.PageCeiling; page++ {
		if err := ctx.Err(); err != nil {
			return items, report, err
		}

		q := cloneValues(query)
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(perPage))

		raw, err := c.Request(ctx, http.MethodGet, path, q, nil)
		if err != nil {
			return items, report, fmt.Errorf("page %d: %w", page, err)
		}

		var batch []json.RawMessage
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &batch); err != nil {
				return items, report, c.remoteErr(http.MethodGet, path, 0, snippet(raw),
					fmt.Errorf("%w: %v", integration.ErrRemoteInvalidResponse, err))
			}
		}

		report.Pages = page
		items = append(items, batch...)
		report.Items = len(items)

		if len(batch) < perPage {
			return items, report, nil
		}
	}

	report.Truncated = true
	c.logger.Warn("Pagination stopped at page ceiling, listing is incomplete",
		zap.String("path", path),
		zap.Int("page_ceiling", c.cfg.PageCeiling),
		zap.Int("items", report.Items),
	)
	return items, report, nil
}

// getAllAs runs GetAllPages and decodes every item
func getAllAs[T any](ctx context.Context, c *Client, path string, query url.Values, perPage int) ([]T, integration.PageReport, error) {
	raws, report, err := c.GetAllPages(ctx, path, query, perPage)
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if derr := json.Unmarshal(raw, &v); derr != nil {
			return out, report, c.remoteErr(http.MethodGet, path, 0, snippet(raw),
				fmt.Errorf("%w: %v", integration.ErrRemoteInvalidResponse, derr))
		}
		out = append(out, v)
	}
	return out, report, err
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+2)
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
