package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
	"github.com/xxxsen/repomind/internal/pkg/timeutil"
	"github.com/xxxsen/repomind/internal/vcs"
)

// InsufficientCreditsError reports a rejected debit. It matches
// ErrInsufficientCredits with errors.Is.
type InsufficientCreditsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Unwrap() error {
	return appErr.ErrInsufficientCredits
}

type CreditService struct {
	vcs    vcs.Client
	filter *IndexFilter
	ledger creditLedger
}

func NewCreditService(client vcs.Client, filter *IndexFilter, ledger creditLedger) *CreditService {
	return &CreditService{vcs: client, filter: filter, ledger: ledger}
}

// CheckCredits prices a repository: one unit per file the indexer would process.
// Only the tree listing is fetched.
func (s *CreditService) CheckCredits(ctx context.Context, repoURL, token string) (int, error) {
	ref, err := vcs.ResolveRepo(repoURL)
	if err != nil {
		return 0, err
	}
	branch, err := s.vcs.DefaultBranch(ctx, ref, token)
	if err != nil {
		return 0, err
	}
	entries, err := s.vcs.ListFileTree(ctx, ref, token, branch)
	if err != nil {
		return 0, err
	}
	kept, filtered := s.filter.Split(entries)
	logutil.GetLogger(ctx).Debug("repository priced",
		zap.String("repo", ref.String()),
		zap.Int("units", len(kept)),
		zap.Int("filtered", filtered),
	)
	return len(kept), nil
}

// AuthorizeAndDebit atomically checks and debits the balance. Zero units pass
// without touching the ledger.
func (s *CreditService) AuthorizeAndDebit(ctx context.Context, userID string, units int, ref string) error {
	if units <= 0 {
		return nil
	}
	available, err := s.ledger.Debit(ctx, &model.CreditTransaction{
		ID:     newID(),
		UserID: userID,
		Delta:  -int64(units),
		Reason: model.CreditReasonIndex,
		Ref:    ref,
		Ctime:  timeutil.NowUnix(),
	})
	if errors.Is(err, appErr.ErrInsufficientCredits) {
		return &InsufficientCreditsError{Required: int64(units), Available: available}
	}
	if err != nil {
		return fmt.Errorf("debit credits: %w", err)
	}
	return nil
}

// Refund compensates a debit whose project could not be created.
func (s *CreditService) Refund(ctx context.Context, userID string, units int, ref string) error {
	if units <= 0 {
		return nil
	}
	return s.ledger.Refund(ctx, &model.CreditTransaction{
		ID:     newID(),
		UserID: userID,
		Delta:  int64(units),
		Reason: model.CreditReasonRefund,
		Ref:    ref,
		Ctime:  timeutil.NowUnix(),
	})
}

func (s *CreditService) Balance(ctx context.Context, userID string) (int64, error) {
	return s.ledger.Balance(ctx, userID)
}

func (s *CreditService) Transactions(ctx context.Context, userID string, limit int) ([]model.CreditTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.ledger.ListTransactions(ctx, userID, limit)
}

// Grant adds purchased credits. A replayed ref is accepted and ignored.
func (s *CreditService) Grant(ctx context.Context, userID string, credits int64, ref string) (bool, error) {
	ref = strings.TrimSpace(ref)
	if strings.TrimSpace(userID) == "" || credits <= 0 || ref == "" {
		return false, appErr.ErrInvalid
	}
	applied, err := s.ledger.Grant(ctx, &model.CreditTransaction{
		ID:     newID(),
		UserID: userID,
		Delta:  credits,
		Reason: model.CreditReasonGrant,
		Ref:    ref,
		Ctime:  timeutil.NowUnix(),
	})
	if err != nil {
		return false, err
	}
	if !applied {
		logutil.GetLogger(ctx).Info("credit grant replayed", zap.String("user_id", userID), zap.String("ref", ref))
	}
	return applied, nil
}
