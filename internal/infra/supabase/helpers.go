package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ============================================================
// HTTP helpers for bulk POST and PostgREST filters
// ============================================================

// Prefer headers for bulk inserts.
const (
	preferIgnoreDuplicates = "resolution=ignore-duplicates,return=minimal"
	preferMergeDuplicates  = "resolution=merge-duplicates,return=minimal"
)

func (c *Client) doPost(ctx context.Context, table string, rows any, prefer string) error {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	jsonBody, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Prefer", prefer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: POST request failed",
			zap.String("table", table),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readBody(resp)
		c.logger.Warn("supabase: POST non-2xx",
			zap.String("table", table),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return &statusError{Status: resp.StatusCode, Body: string(body)}
	}

	c.logger.Debug("supabase: POST OK", zap.String("table", table), zap.Int("status", resp.StatusCode))
	return nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// inFilter renders a PostgREST "in" filter: in.(1,2,3).
func inFilter(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "in.(" + strings.Join(parts, ",") + ")"
}

// rangeFilter renders a half-open timestamp window on column.
func rangeFilter(column string, from, to time.Time) string {
	return fmt.Sprintf("%s=gte.%s&%s=lt.%s",
		column, from.UTC().Format(time.RFC3339),
		column, to.UTC().Format(time.RFC3339))
}
