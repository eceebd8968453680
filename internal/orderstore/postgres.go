package orderstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"trigger-trading-bot/internal/interfaces"
	"trigger-trading-bot/internal/types"
)

const statementTimeout = 5 * time.Second

// PostgresStore persists trigger orders in the trigger_orders table. The
// conditional status update is what closes the double-execution race when a
// tick and a cancellation touch the same order.
type PostgresStore struct {
	db *sql.DB
}

var _ interfaces.OrderStore = (*PostgresStore)(nil)

// NewPostgresStore opens a connection pool against the DSN
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() error { return s.db.Close() }

const orderColumns = `id, symbol, quantity, side, trigger_percent, execution_method,
	base_price, target_price, status, last_checked_at, triggered_at, executed_at,
	execution_price, broker_order_id, broker_status, failure_reason, created_at`

func (s *PostgresStore) CreateOrder(ctx context.Context, order types.TriggerOrder) (types.TriggerOrder, error) {
	if order.Status == "" {
		order.Status = types.StatusPending
	}

	insertSQL := `INSERT INTO trigger_orders(symbol, quantity, side, trigger_percent, execution_method, base_price, target_price, status)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	stmtCtx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	row := s.db.QueryRowContext(stmtCtx, insertSQL,
		order.Symbol, order.Quantity, order.Side, order.TriggerPercent,
		nullString(string(order.ExecutionMethod)), nullFloat(order.BasePrice),
		nullFloat(order.TargetPrice), order.Status)
	if err := row.Scan(&order.ID, &order.CreatedAt); err != nil {
		return types.TriggerOrder{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return order, nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id string) (types.TriggerOrder, error) {
	querySQL := `SELECT ` + orderColumns + ` FROM trigger_orders WHERE id = $1`

	stmtCtx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	o, err := scanOrder(s.db.QueryRowContext(stmtCtx, querySQL, id))
	if err == sql.ErrNoRows {
		return types.TriggerOrder{}, interfaces.ErrOrderNotFound
	}
	return o, err
}

func (s *PostgresStore) ListActiveOrders(ctx context.Context) ([]types.TriggerOrder, error) {
	querySQL := `SELECT ` + orderColumns + ` FROM trigger_orders
		WHERE status NOT IN ($1, $2, $3, $4)
		ORDER BY created_at ASC, id ASC`

	stmtCtx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(stmtCtx, querySQL,
		types.StatusExecuted, types.StatusCancelled, types.StatusFailed, types.StatusExecutionFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to list active orders: %w", err)
	}
	defer rows.Close()

	var orders []types.TriggerOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *PostgresStore) UpdateOrder(ctx context.Context, id string, upd types.OrderUpdate) (types.TriggerOrder, error) {
	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.BasePrice != nil {
		add("base_price", *upd.BasePrice)
	}
	if upd.TargetPrice != nil {
		add("target_price", *upd.TargetPrice)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.LastCheckedAt != nil {
		add("last_checked_at", *upd.LastCheckedAt)
	}
	if upd.TriggeredAt != nil {
		add("triggered_at", *upd.TriggeredAt)
	}
	if upd.ExecutedAt != nil {
		add("executed_at", *upd.ExecutedAt)
	}
	if upd.ExecutionPrice != nil {
		add("execution_price", *upd.ExecutionPrice)
	}
	if upd.BrokerOrderID != nil {
		add("broker_order_id", *upd.BrokerOrderID)
	}
	if upd.BrokerStatus != nil {
		add("broker_status", *upd.BrokerStatus)
	}
	if upd.FailureReason != nil {
		add("failure_reason", *upd.FailureReason)
	}

	if len(sets) == 0 {
		return s.GetOrder(ctx, id)
	}

	args = append(args, id)
	updateSQL := fmt.Sprintf(`UPDATE trigger_orders SET %s, updated_at = NOW() WHERE id = $%d RETURNING `+orderColumns,
		strings.Join(sets, ", "), len(args))

	stmtCtx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	o, err := scanOrder(s.db.QueryRowContext(stmtCtx, updateSQL, args...))
	if err == sql.ErrNoRows {
		return types.TriggerOrder{}, interfaces.ErrOrderNotFound
	}
	return o, err
}

// TransitionStatus performs the compare-and-swap on status. First writer
// wins; a false return means the order was no longer in the expected status.
func (s *PostgresStore) TransitionStatus(ctx context.Context, id string, from, to types.Status) (bool, error) {
	updateSQL := `UPDATE trigger_orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	stmtCtx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	res, err := s.db.ExecContext(stmtCtx, updateSQL, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition order %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (types.TriggerOrder, error) {
	var o types.TriggerOrder
	var execMethod, brokerOrderID, brokerStatus, failureReason sql.NullString
	var basePrice, targetPrice, executionPrice sql.NullFloat64
	var lastChecked, triggeredAt, executedAt sql.NullTime

	err := row.Scan(&o.ID, &o.Symbol, &o.Quantity, &o.Side, &o.TriggerPercent, &execMethod,
		&basePrice, &targetPrice, &o.Status, &lastChecked, &triggeredAt, &executedAt,
		&executionPrice, &brokerOrderID, &brokerStatus, &failureReason, &o.CreatedAt)
	if err != nil {
		return types.TriggerOrder{}, err
	}

	o.ExecutionMethod = types.ExecutionMethod(execMethod.String)
	o.BasePrice = basePrice.Float64
	o.TargetPrice = targetPrice.Float64
	o.ExecutionPrice = executionPrice.Float64
	o.BrokerOrderID = brokerOrderID.String
	o.BrokerStatus = brokerStatus.String
	o.FailureReason = failureReason.String
	if lastChecked.Valid {
		o.LastCheckedAt = lastChecked.Time
	}
	if triggeredAt.Valid {
		t := triggeredAt.Time
		o.TriggeredAt = &t
	}
	if executedAt.Valid {
		t := executedAt.Time
		o.ExecutedAt = &t
	}
	return o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f > 0}
}
