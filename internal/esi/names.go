package esi

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"eve-arbscan/internal/logger"
)

// NamesChunkSize is the largest id batch /universe/names/ accepts.
const NamesChunkSize = 1000

// NameEntry mirrors one element of the /universe/names/ response.
type NameEntry struct {
	ID       int32  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// FetchNames resolves one batch of ids.
func (c *Client) FetchNames(ctx context.Context, ids []int32) ([]NameEntry, error) {
	url := fmt.Sprintf("%s/universe/names/?datasource=%s", c.baseURL, datasource)
	var entries []NameEntry
	if _, err := c.doJSON(ctx, "names", http.MethodPost, url, ids, c.namesTimeout, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ResolveNames maps item ids to display names. Input is deduplicated and
// split into NamesChunkSize batches, one call per batch. A failed batch
// contributes nothing; callers must handle ids missing from the result.
func (c *Client) ResolveNames(ctx context.Context, ids []int32) map[int32]string {
	names := make(map[int32]string, len(ids))
	for _, chunk := range ChunkIDs(ids, NamesChunkSize) {
		if ctx.Err() != nil {
			break
		}
		entries, err := c.FetchNames(ctx, chunk)
		if err != nil {
			logger.Warn("ESI", fmt.Sprintf("names batch of %d ids failed: %v", len(chunk), err))
			continue
		}
		for _, e := range entries {
			names[e.ID] = e.Name
		}
	}
	return names
}

// ChunkIDs deduplicates ids, sorts them and splits them into batches of at
// most size elements.
func ChunkIDs(ids []int32, size int) [][]int32 {
	if size <= 0 {
		size = NamesChunkSize
	}
	seen := make(map[int32]struct{}, len(ids))
	unique := make([]int32, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	var chunks [][]int32
	for i := 0; i < len(unique); i += size {
		end := i + size
		if end > len(unique) {
			end = len(unique)
		}
		chunks = append(chunks, unique[i:end])
	}
	return chunks
}
