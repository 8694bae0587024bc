package lookup

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nao1215/phishscan/internal/feature"
)

// RankList is an in-memory traffic ranking loaded from a "rank,domain" CSV
// file such as the Tranco or Umbrella top-sites lists.
//
// Design decision: We use a downloaded list rather than a live traffic API
// because:
//  1. The lists are free and updated daily
//  2. Lookups become a map access with no network dependency
//  3. Results are reproducible for a given list file
type RankList struct {
	ranks map[string]int
}

// LoadRankList reads a rank list file.
func LoadRankList(path string) (*RankList, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the user's configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open rank list: %w", err)
	}
	defer f.Close()
	return ReadRankList(f)
}

// ReadRankList parses "rank,domain" records. A header row whose first field
// is not a number is skipped. The best (lowest) rank wins for duplicates.
func ReadRankList(r io.Reader) (*RankList, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	ranks := make(map[string]int)
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRankList, err)
		}
		line++
		if len(record) < 2 {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrInvalidRankList, line, len(record))
		}

		rank, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidRankList, line, err)
		}
		domain := strings.ToLower(strings.TrimSpace(record[1]))
		if domain == "" || rank <= 0 {
			continue
		}
		if existing, ok := ranks[domain]; !ok || rank < existing {
			ranks[domain] = rank
		}
	}
	return &RankList{ranks: ranks}, nil
}

// NewRankList builds a RankList from a map, mainly for tests.
func NewRankList(ranks map[string]int) *RankList {
	rl := &RankList{ranks: make(map[string]int, len(ranks))}
	for domain, rank := range ranks {
		rl.ranks[strings.ToLower(domain)] = rank
	}
	return rl
}

// Len returns the number of ranked domains.
func (rl *RankList) Len() int {
	return len(rl.ranks)
}

// TrafficRank implements feature.TrafficRanker.
func (rl *RankList) TrafficRank(_ context.Context, domain string) (int, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if rank, ok := rl.ranks[domain]; ok {
		return rank, nil
	}
	if rank, ok := rl.ranks[strings.TrimPrefix(domain, "www.")]; ok {
		return rank, nil
	}
	return 0, fmt.Errorf("%w: %s is not ranked", feature.ErrNotFound, domain)
}
