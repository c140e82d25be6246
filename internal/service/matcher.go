package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"

	"docledger/internal/domain"
	"docledger/internal/oracle"
	"docledger/internal/port"
)

// similarityThreshold is the minimum layout similarity score (0-100) at which
// a prior instruction is considered reusable.
const similarityThreshold = 70

// PromptMatcher finds a reusable extraction instruction for an incoming
// document: exact client match first, then oracle-scored layout similarity.
type PromptMatcher struct {
	repo   port.DocumentRepository
	oracle port.Oracle
}

// NewPromptMatcher creates a PromptMatcher.
func NewPromptMatcher(repo port.DocumentRepository, llm port.Oracle) *PromptMatcher {
	return &PromptMatcher{repo: repo, oracle: llm}
}

// SuggestPrompt returns the best reusable instruction for the client/layout
// pair, or "" when nothing qualifies. The search is read-only.
func (m *PromptMatcher) SuggestPrompt(ctx context.Context, clientName string, layout domain.Layout) (string, error) {
	// Step 1: exact client name match wins regardless of layout similarity.
	doc, err := m.repo.FirstByClientWithPrompt(ctx, clientName)
	if err == nil {
		if _, prompt, ok := doc.PromptHistory.Latest(); ok {
			return prompt, nil
		}
	} else if !errors.Is(err, domain.ErrDocumentNotFound) {
		return "", fmt.Errorf("matcher: client lookup: %w", err)
	}

	// Step 2: score layouts of every distinct prior instruction.
	candidates, err := m.repo.ListWithPrompts(ctx)
	if err != nil {
		return "", fmt.Errorf("matcher: listing candidates: %w", err)
	}

	var (
		bestScore  float64
		bestPrompt string
		seen       = map[string]bool{}
	)
	for _, cand := range candidates {
		_, prompt, ok := cand.PromptHistory.Latest()
		if !ok {
			continue
		}
		// One oracle call per distinct instruction, not per document.
		if seen[prompt] {
			continue
		}
		seen[prompt] = true

		score, err := m.scoreLayouts(ctx, layout, cand.Layout)
		if err != nil {
			// A candidate that fails scoring is skipped, never fatal.
			log.Printf("promptMatcher: skipping candidate %d: %v", cand.ID, err)
			continue
		}
		if score >= similarityThreshold && score > bestScore {
			bestScore = score
			bestPrompt = prompt
		}
	}
	return bestPrompt, nil
}

func (m *PromptMatcher) scoreLayouts(ctx context.Context, a, b domain.Layout) (float64, error) {
	text, _, err := m.oracle.Complete(ctx, oracle.BuildLayoutComparePrompt(a, b))
	if err != nil {
		return 0, fmt.Errorf("scoring layouts: %w", err)
	}
	return parseScore(text)
}

var scorePattern = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)

// parseScore extracts the first number from oracle output and clamps it to
// [0,100]. The oracle is prompted to return a bare number but is not trusted
// to.
func parseScore(text string) (float64, error) {
	match := scorePattern.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("no numeric score in oracle output %q", truncate(text, 120))
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing score %q: %w", match, err)
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
