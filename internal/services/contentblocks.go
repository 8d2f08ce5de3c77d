package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"lms-backend/internal/models"
)

// FileRemover deletes a previously uploaded file by its public URL.
type FileRemover interface {
	Delete(ctx context.Context, url string) error
}

// ReconcileContentFiles deletes files referenced by oldValue that newValue
// no longer references. It never fails: each delete is attempted on its own
// and failures are only logged.
//
// When either value is not a JSON array, every file found in oldValue
// is deleted.
func ReconcileContentFiles(ctx context.Context, remover FileRemover, oldValue, newValue string) int {
	if strings.TrimSpace(oldValue) == "" || remover == nil {
		return 0
	}

	oldBlocks, oldErr := parseBlocks(oldValue)
	newBlocks, newErr := parseBlocks(newValue)
	if oldErr != nil || newErr != nil {
		log.Printf("content blocks: unparseable value, removing every file in previous content")
		return removeAll(ctx, remover, scanFileURLs(oldValue))
	}

	keep := make(map[string]struct{})
	for _, url := range fileURLs(newBlocks) {
		keep[url] = struct{}{}
	}

	var orphans []string
	for _, url := range fileURLs(oldBlocks) {
		if _, ok := keep[url]; !ok {
			orphans = append(orphans, url)
		}
	}
	return removeAll(ctx, remover, orphans)
}

// ContentFileURLs lists the distinct file URLs referenced by a block array.
// Values that do not parse yield no URLs.
func ContentFileURLs(value string) []string {
	blocks, err := parseBlocks(value)
	if err != nil {
		return nil
	}
	return fileURLs(blocks)
}

// parseBlocks decodes value as a JSON array without constraining the shape
// of its elements; only file blocks are inspected later.
func parseBlocks(value string) ([]json.RawMessage, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var blocks []json.RawMessage
	if err := json.Unmarshal([]byte(value), &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

type blockRef struct {
	Type    json.RawMessage `json:"type"`
	Content json.RawMessage `json:"content"`
}

// blockFile returns the uploaded file a block points at. Elements that are
// not objects, or whose type or content is not a string, carry no file.
func blockFile(raw json.RawMessage) (string, bool) {
	var ref blockRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return "", false
	}

	var blockType, url string
	if err := json.Unmarshal(ref.Type, &blockType); err != nil || !models.IsFileBlock(blockType) {
		return "", false
	}
	if err := json.Unmarshal(ref.Content, &url); err != nil || url == "" {
		return "", false
	}
	return url, true
}

func fileURLs(blocks []json.RawMessage) []string {
	seen := make(map[string]struct{})
	urls := make([]string, 0, len(blocks))
	for _, b := range blocks {
		url, ok := blockFile(b)
		if !ok {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}
	return urls
}

// scanFileURLs recovers the complete objects from a damaged value. Every '{'
// is tried as the start of a JSON object; a successful decode skips past the
// whole object, nested members included.
func scanFileURLs(raw string) []string {
	var blocks []json.RawMessage
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(raw[i:]))
		var obj json.RawMessage
		if err := dec.Decode(&obj); err != nil {
			continue
		}
		blocks = append(blocks, obj)
		i += int(dec.InputOffset()) - 1
	}
	return fileURLs(blocks)
}

func removeAll(ctx context.Context, remover FileRemover, urls []string) int {
	removed := 0
	for _, url := range urls {
		if err := remover.Delete(ctx, url); err != nil {
			log.Printf("content blocks: failed to delete %s: %v", url, err)
			continue
		}
		removed++
	}
	return removed
}
