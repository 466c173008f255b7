package ledgerrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/sqlc-dev/pqtype"

	"github.com/kachence/sols.bet-sub002/internal/domain"
	"github.com/kachence/sols.bet-sub002/internal/infrastructure/database"
)

const uniqueViolation = "23505"

type ledgerRepositoryImpl struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) ILedgerRepository {
	return &ledgerRepositoryImpl{
		db:     db.Db,
		logger: logger,
	}
}

func (r *ledgerRepositoryImpl) GetAccount(ctx context.Context, username string) (*domain.Account, error) {
	const query = `
		SELECT username, wallet_address, COALESCE(smart_vault_address, ''), balance_lamports, created_at, updated_at
		FROM accounts
		WHERE username = $1`

	var account domain.Account
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&account.Username,
		&account.WalletAddress,
		&account.SmartVaultAddress,
		&account.BalanceLamports,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("username", username).Msg("Failed to get account")
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

func (r *ledgerRepositoryImpl) CheckDuplicate(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	tx, err := r.scanTransaction(r.db.QueryRowContext(ctx, selectTransactionQuery+` WHERE transaction_id = $1`, transactionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("transaction_id", transactionID).Msg("Failed to check duplicate transaction")
		return nil, fmt.Errorf("failed to check duplicate transaction: %w", err)
	}

	return tx, nil
}

// ApplyDelta runs the whole mutation in one database transaction: lock the
// account row, re-check for a duplicate transaction ID under the lock,
// re-validate sufficiency for withdrawals, append the transaction row and
// move the balance. Concurrent duplicates that race past the lock are caught
// by the unique index on transaction_id and resolved to the committed row.
func (r *ledgerRepositoryImpl) ApplyDelta(ctx context.Context, params ApplyDeltaParams) (*ApplyDeltaResult, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if params.Operation == domain.OpDeposit {
		_, err = dbTx.ExecContext(ctx, `
			INSERT INTO accounts (username, wallet_address, smart_vault_address)
			VALUES ($1, $2, NULLIF($3, ''))
			ON CONFLICT (username) DO NOTHING`,
			params.Username, params.WalletAddress, params.VaultAddress,
		)
		if err != nil {
			r.logger.Error().Err(err).Str("username", params.Username).Msg("Failed to ensure account")
			return nil, fmt.Errorf("failed to ensure account: %w", err)
		}
	}

	var balance int64
	err = dbTx.QueryRowContext(ctx,
		`SELECT balance_lamports FROM accounts WHERE username = $1 FOR UPDATE`,
		params.Username,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("username", params.Username).Msg("Failed to lock account row")
		return nil, fmt.Errorf("failed to lock account row: %w", err)
	}

	// Duplicate re-check under the account lock: a previously committed row
	// makes this call a pure replay.
	var recordedAfter int64
	err = dbTx.QueryRowContext(ctx,
		`SELECT balance_after FROM transactions WHERE transaction_id = $1`,
		params.TransactionID,
	).Scan(&recordedAfter)
	if err == nil {
		return &ApplyDeltaResult{BalanceAfter: recordedAfter, Replayed: true}, nil
	}
	if err != sql.ErrNoRows {
		r.logger.Error().Err(err).Str("transaction_id", params.TransactionID).Msg("Failed duplicate re-check")
		return nil, fmt.Errorf("failed duplicate re-check: %w", err)
	}

	newBalance := balance + params.AmountLamports
	if params.Operation == domain.OpWithdraw {
		if balance < params.AmountLamports {
			return nil, domain.ErrInsufficientBalance
		}
		newBalance = balance - params.AmountLamports
	}

	var usdCents sql.NullInt64
	if params.AmountUsdCents != nil {
		usdCents = sql.NullInt64{Int64: *params.AmountUsdCents, Valid: true}
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO transactions (id, transaction_id, username, operation, amount_lamports, amount_usd_cents, balance_after, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(),
		params.TransactionID,
		params.Username,
		string(params.Operation),
		params.AmountLamports,
		usdCents,
		newBalance,
		pqtype.NullRawMessage{RawMessage: params.Metadata, Valid: params.Metadata != nil},
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return r.resolveReplay(ctx, params.TransactionID)
		}
		r.logger.Error().Err(err).Str("transaction_id", params.TransactionID).Msg("Failed to insert transaction")
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	_, err = dbTx.ExecContext(ctx,
		`UPDATE accounts SET balance_lamports = $2, updated_at = now() WHERE username = $1`,
		params.Username, newBalance,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("username", params.Username).Msg("Failed to update balance")
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit balance delta: %w", err)
	}

	return &ApplyDeltaResult{BalanceAfter: newBalance}, nil
}

// resolveReplay reads the row a concurrent duplicate committed while this
// call was in flight.
func (r *ledgerRepositoryImpl) resolveReplay(ctx context.Context, transactionID string) (*ApplyDeltaResult, error) {
	committed, err := r.CheckDuplicate(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if committed == nil {
		return nil, fmt.Errorf("transaction %s hit unique violation but is not readable", transactionID)
	}
	return &ApplyDeltaResult{BalanceAfter: committed.BalanceAfter, Replayed: true}, nil
}

const selectTransactionQuery = `
	SELECT id, transaction_id, username, operation, amount_lamports, amount_usd_cents, balance_after, metadata, created_at
	FROM transactions`

func (r *ledgerRepositoryImpl) ListTransactions(ctx context.Context, username string, limit, offset int) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectTransactionQuery+` WHERE username = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		username, limit, offset,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("username", username).Msg("Failed to list transactions")
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		tx, err := r.scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result = append(result, *tx)
	}

	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *ledgerRepositoryImpl) scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		tx       domain.Transaction
		id       uuid.UUID
		usdCents sql.NullInt64
		metadata pqtype.NullRawMessage
	)

	err := row.Scan(
		&id,
		&tx.TransactionID,
		&tx.Username,
		&tx.Operation,
		&tx.AmountLamports,
		&usdCents,
		&tx.BalanceAfter,
		&metadata,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.ID = id.String()
	if usdCents.Valid {
		tx.AmountUsdCents = &usdCents.Int64
	}
	if metadata.Valid {
		tx.Metadata = metadata.RawMessage
	}

	return &tx, nil
}
