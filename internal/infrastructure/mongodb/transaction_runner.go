package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	apperrors "github.com/flashmart/order-service/pkg/errors"
	"github.com/flashmart/order-service/pkg/logging"
	"github.com/flashmart/order-service/pkg/metrics"
	"github.com/flashmart/order-service/pkg/resilience"
)

// txClient is the slice of the MongoDB client the runner needs. Both the
// plain and the instrumented client satisfy it.
type txClient interface {
	WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error
}

// TransactionRunner executes a unit of work inside a MongoDB transaction,
// retrying the whole unit on transient infrastructure faults and shedding
// load through a circuit breaker when storage is unhealthy.
//
// This outer retry is deliberately separate from the per-ledger optimistic
// retry in the application layer: one absorbs infrastructure blips, the
// other absorbs row-level write races.
type TransactionRunner struct {
	client  txClient
	breaker *resilience.CircuitBreaker
	retry   *resilience.RetryConfig
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewTransactionRunner creates a TransactionRunner over client
func NewTransactionRunner(client txClient, m *metrics.Metrics, logger *logging.Logger) *TransactionRunner {
	retryConfig := resilience.DefaultRetryConfig()
	retryConfig.Retryable = isTransient

	return &TransactionRunner{
		client:  client,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("mongodb-txn"), logger.Logger),
		retry:   retryConfig,
		metrics: m,
		logger:  logger.WithComponent("transaction-runner"),
	}
}

// Execute runs fn atomically. Business failures (AppErrors) pass through
// untouched and do not count against the circuit breaker.
func (r *TransactionRunner) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	var businessErr error

	err := r.breaker.Execute(func() error {
		attempt := 0
		err := resilience.Retry(ctx, r.retry, func() error {
			attempt++
			if attempt > 1 {
				r.metrics.TransactionRetries.Inc()
				r.logger.WithContext(ctx).Warn("Retrying unit of work after transient fault",
					"attempt", attempt)
			}
			return r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
				return fn(sessCtx)
			})
		})
		if err != nil && apperrors.IsAppError(err) {
			businessErr = err
			return nil
		}
		return err
	})

	if businessErr != nil {
		return businessErr
	}
	if err != nil {
		r.metrics.TransactionFailures.Inc()
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return apperrors.ErrServiceUnavailable("order storage")
		}
		return fmt.Errorf("unit of work failed: %w", err)
	}
	return nil
}

// isTransient reports whether the fault is worth re-running the whole unit
// of work for.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if apperrors.IsAppError(err) {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError") ||
			cmdErr.HasErrorLabel("UnknownTransactionCommitResult")
	}

	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}
