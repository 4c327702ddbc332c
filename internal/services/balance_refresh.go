package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fundraising-backend/internal/models"
	"fundraising-backend/internal/progress"
	"fundraising-backend/internal/rates"
)

// ProjectStore is the subset of the database client the refresh
// service needs.
type ProjectStore interface {
	GetProject(projectID uuid.UUID) (*models.Project, error)
	UpdateProjectBalanceCAS(projectID uuid.UUID, balance decimal.Decimal, fetchedAt time.Time, expected sql.NullTime) (bool, error)
}

// BalanceFetcher fetches the confirmed balance of a Bitcoin address.
type BalanceFetcher interface {
	GetBalance(address string) (decimal.Decimal, error)
}

// RateProvider resolves BTC→currency quotes, reporting whether the
// quote is being served stale.
type RateProvider interface {
	GetRate(currencyCode string) (rates.Quote, bool, error)
}

const duplicateWindow = time.Second

type RefreshResult struct {
	BalanceBTC      decimal.Decimal
	AmountRaised    decimal.Decimal
	GoalCurrency    string
	ProgressPercent decimal.Decimal
	GoalAchieved    bool
	Refreshed       bool
	NextAllowedAt   *time.Time
	RateStale       bool
}

// BalanceRefreshService orchestrates user-triggered balance refreshes:
// authorization, the duplicate/cooldown window, the bounded external
// fetch, and the conditional persist. The project row's balance fields
// are mutated nowhere else.
type BalanceRefreshService struct {
	store    ProjectStore
	balances BalanceFetcher
	rates    RateProvider
	cooldown time.Duration

	now func() time.Time
}

func NewBalanceRefreshService(store ProjectStore, balances BalanceFetcher, rateProvider RateProvider, cooldown time.Duration) *BalanceRefreshService {
	return &BalanceRefreshService{
		store:    store,
		balances: balances,
		rates:    rateProvider,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// RefreshBalance fetches and persists the project's on-chain balance,
// subject to the cooldown protocol:
//
//  1. A request landing within 1s of the last update is treated as an
//     accidental duplicate and answered from cache with no external
//     call.
//  2. A request within the cooldown is answered from cache with
//     refreshed=false and the time the next refresh becomes allowed.
//     This is a success, not an error.
//  3. Otherwise the balance is fetched and persisted with a
//     compare-and-swap on the observed timestamp. A failed fetch
//     leaves the stored values untouched. A lost CAS means a
//     concurrent refresh won; its equally valid result is re-read and
//     returned.
func (s *BalanceRefreshService) RefreshBalance(projectID, requesterID uuid.UUID) (*RefreshResult, error) {
	project, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: requester does not own project", models.ErrUnauthorized)
	}
	if project.BitcoinAddress == "" {
		return nil, fmt.Errorf("%w: project has no bitcoin address", models.ErrInvalidState)
	}

	observed := project.BitcoinBalanceUpdatedAt
	if observed.Valid {
		age := s.now().Sub(observed.Time)
		if age < duplicateWindow {
			return s.buildResult(project, false, nil)
		}
		if age < s.cooldown {
			next := observed.Time.Add(s.cooldown)
			return s.buildResult(project, false, &next)
		}
	}

	balance, err := s.balances.GetBalance(project.BitcoinAddress)
	if err != nil {
		if !errors.Is(err, models.ErrExternalService) {
			err = fmt.Errorf("%w: %v", models.ErrExternalService, err)
		}
		return nil, err
	}

	fetchedAt := s.now()
	swapped, err := s.store.UpdateProjectBalanceCAS(projectID, balance, fetchedAt, observed)
	if err != nil {
		return nil, err
	}

	if !swapped {
		// Lost the race against a concurrent refresh; its result is
		// just as fresh, so discard ours and return the winner's.
		current, err := s.store.GetProject(projectID)
		if err != nil {
			return nil, err
		}
		var next *time.Time
		if current.BitcoinBalanceUpdatedAt.Valid && s.now().Sub(current.BitcoinBalanceUpdatedAt.Time) < s.cooldown {
			n := current.BitcoinBalanceUpdatedAt.Time.Add(s.cooldown)
			next = &n
		}
		return s.buildResult(current, false, next)
	}

	project.BitcoinBalanceBTC = balance
	project.BitcoinBalanceUpdatedAt = sql.NullTime{Time: fetchedAt, Valid: true}
	return s.buildResult(project, true, nil)
}

func (s *BalanceRefreshService) buildResult(project *models.Project, refreshed bool, nextAllowedAt *time.Time) (*RefreshResult, error) {
	var stale bool
	result, err := progress.Compute(snapshotOf(project), func(currencyCode string) (decimal.Decimal, error) {
		quote, wasStale, err := s.rates.GetRate(currencyCode)
		if err != nil {
			return decimal.Zero, err
		}
		stale = wasStale
		return quote.Rate, nil
	})
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		BalanceBTC:      project.BitcoinBalanceBTC,
		AmountRaised:    result.AmountRaised,
		GoalCurrency:    project.GoalCurrency,
		ProgressPercent: result.ProgressPercent,
		GoalAchieved:    result.GoalAchieved,
		Refreshed:       refreshed,
		NextAllowedAt:   nextAllowedAt,
		RateStale:       stale,
	}, nil
}

func snapshotOf(project *models.Project) progress.Snapshot {
	return progress.Snapshot{
		BitcoinAddress:     project.BitcoinAddress,
		LegacyRaisedAmount: project.LegacyRaisedAmount,
		BitcoinBalanceBTC:  project.BitcoinBalanceBTC,
		GoalAmount:         project.GoalAmount,
		GoalCurrency:       project.GoalCurrency,
	}
}

// ComputeProgress derives the current figures for a project read
// without touching any external balance state.
func (s *BalanceRefreshService) ComputeProgress(project *models.Project) (progress.Result, bool, error) {
	var stale bool
	result, err := progress.Compute(snapshotOf(project), func(currencyCode string) (decimal.Decimal, error) {
		quote, wasStale, err := s.rates.GetRate(currencyCode)
		if err != nil {
			return decimal.Zero, err
		}
		stale = wasStale
		return quote.Rate, nil
	})
	return result, stale, err
}
