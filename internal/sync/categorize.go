package sync

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
)

// CompiledRule is a categorization rule whose pattern compiled successfully.
type CompiledRule struct {
	CategoryID uint
	re         *regexp.Regexp
}

// Matches reports whether the rule matches the description or merchant name.
// This is a substring search, not a full match.
func (r CompiledRule) Matches(description string, merchantName *string) bool {
	if r.re.MatchString(description) {
		return true
	}
	return merchantName != nil && r.re.MatchString(*merchantName)
}

// CompileRule turns a user-supplied pattern into a case-insensitive regex.
// Compilation failure is returned as a value; callers decide whether to skip
// the rule or reject the input.
func CompileRule(pattern string) (CompiledRule, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return CompiledRule{}, fmt.Errorf("invalid rule pattern %q: %w", pattern, err)
	}
	return CompiledRule{re: re}, nil
}

// Categorizer applies the owner's ordered rules to uncategorized
// transactions.
type Categorizer struct {
	log zerolog.Logger
}

func NewCategorizer(log zerolog.Logger) *Categorizer {
	return &Categorizer{log: log}
}

// Apply runs first-match-wins categorization for userID. A non-nil
// externalIDs restricts the pass to those newly-synced rows; nil sweeps all
// uncategorized transactions. Matched rows are grouped by resulting category
// and written with one batched update per category, because rule counts
// times transaction counts get large on a first sync. Returns how many
// transactions were categorized.
//
// A rule whose pattern fails to compile is skipped for this run; it is the
// user's rule to fix, not a reason to fail the sync.
func (c *Categorizer) Apply(ctx context.Context, store Store, userID uint, externalIDs []string) (int, error) {
	rules, err := store.RulesForOwner(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(rules) == 0 {
		return 0, nil
	}

	compiled := make([]CompiledRule, 0, len(rules))
	for _, rule := range rules {
		cr, err := CompileRule(rule.Pattern)
		if err != nil {
			c.log.Warn().Uint("rule_id", rule.ID).Str("pattern", rule.Pattern).
				Msg("skipping rule with invalid pattern")
			continue
		}
		cr.CategoryID = rule.CategoryID
		compiled = append(compiled, cr)
	}
	if len(compiled) == 0 {
		return 0, nil
	}

	txns, err := store.UncategorizedTransactions(ctx, userID, externalIDs)
	if err != nil {
		return 0, err
	}

	byCategory := make(map[uint][]uint)
	for _, txn := range txns {
		for _, rule := range compiled {
			if rule.Matches(txn.Description, txn.MerchantName) {
				byCategory[rule.CategoryID] = append(byCategory[rule.CategoryID], txn.ID)
				break
			}
		}
	}

	total := 0
	for categoryID, ids := range byCategory {
		n, err := store.AssignCategory(ctx, userID, categoryID, ids)
		if err != nil {
			return total, err
		}
		total += int(n)
	}

	if total > 0 {
		c.log.Info().Uint("user_id", userID).Int("categorized", total).
			Int("categories", len(byCategory)).Msg("auto-categorized transactions")
	}
	return total, nil
}
