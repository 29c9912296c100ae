package keyset

import (
	"context"
	"slices"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Bound selects on which side of the boundary the requested page lies.
type Bound string

const (
	// BoundLower requests rows after the boundary in forward sort order
	// (classic next page).
	BoundLower Bound = "LOWER"
	// BoundUpper requests rows before the boundary. The page is queried with
	// the ordering reversed and the rows are restored to forward order before
	// being returned, so the reversal is invisible to the caller.
	BoundUpper Bound = "UPPER"
)

func (b Bound) Valid() bool {
	return b == BoundLower || b == BoundUpper
}

// Getters maps sort columns to per-row value getters. Declare one getter for
// every column the pagination ordering uses.
// Example:
//
//	keyset.Getters[models.Player]{
//		"id":          func(row models.Player) any { return row.ID },
//		"deposit_sum": func(row models.Player) any { return row.DepositSum },
//	}
type Getters[T any] map[string]func(T) any

// KeysetItem is one result row together with its position in the total order.
type KeysetItem[T any] struct {
	// Key identifies the item: the configured key column's value, or the
	// item's position within the page when no key column is configured.
	Key any
	// Payload is the domain row.
	Payload T
	// Boundary is the row's sort-column tuple, usable as the boundary of a
	// continuation request.
	Boundary Boundary
}

// Adapter paginates a base GORM query. The base query must carry a declared
// ordering and must not be bounded by limit or offset; both are checked at
// construction. All per-call work happens on a fresh session of the base
// query, so a single adapter is safe for concurrent use.
type Adapter[T any] struct {
	base       *gorm.DB
	ordering   Orderings
	getters    Getters[T]
	keyColumn  string
	dispatcher Dispatcher[clause.Expression]
	counter    Counter

	// extendedSelects replaces a narrowed SELECT list on keyset fetches so
	// every sort column is scanned and getters observe real values. Nil when
	// the base query selects everything.
	extendedSelects []string
}

// Option configures an Adapter before validation runs.
type Option[T any] func(*Adapter[T])

// WithOrdering overrides ordering derivation from the base query.
func WithOrdering[T any](orderBy ...OrderBy) Option[T] {
	return func(a *Adapter[T]) {
		a.ordering = Orderings(orderBy)
	}
}

// WithKeyColumn makes item keys come from the named column's getter instead
// of the positional default.
func WithKeyColumn[T any](column string) Option[T] {
	return func(a *Adapter[T]) {
		a.keyColumn = column
	}
}

// WithDispatcher replaces the default GORM dispatcher.
func WithDispatcher[T any](dispatcher Dispatcher[clause.Expression]) Option[T] {
	return func(a *Adapter[T]) {
		a.dispatcher = dispatcher
	}
}

// WithTypeResolver sets the resolver the default dispatcher binds boundary
// values through. Ignored when WithDispatcher is also given.
func WithTypeResolver[T any](resolver TypeResolver) Option[T] {
	return func(a *Adapter[T]) {
		if a.dispatcher == nil {
			a.dispatcher = GORMDispatcher{Resolver: resolver}
		}
	}
}

// WithCounter replaces the default GORM counter.
func WithCounter[T any](counter Counter) Option[T] {
	return func(a *Adapter[T]) {
		a.counter = counter
	}
}

// NewAdapter validates the base query and builds an adapter over it.
// Configuration problems are reported here, never deferred to the first call:
// a base query already bounded by limit or offset, a missing or invalid
// ordering, a sort column without a getter, or a key column without a getter
// all yield ErrConfiguration.
func NewAdapter[T any](db *gorm.DB, getters Getters[T], opts ...Option[T]) (*Adapter[T], error) {
	if db == nil {
		return nil, configurationErrorf("nil base query")
	}

	if err := checkUnbounded(db); err != nil {
		return nil, err
	}

	a := &Adapter[T]{
		base:    db,
		getters: getters,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.ordering == nil {
		derived, err := DeriveOrderings(db)
		if err != nil {
			return nil, err
		}
		a.ordering = derived
	} else if err := a.ordering.validate(); err != nil {
		return nil, err
	}

	for _, orderBy := range a.ordering {
		if _, ok := getters[orderBy.Column]; !ok {
			return nil, configurationErrorf("cannot find getter for column '%s' met in ordering", orderBy.Column)
		}
	}
	if a.keyColumn != "" {
		if _, ok := getters[a.keyColumn]; !ok {
			return nil, configurationErrorf("cannot find getter for key column '%s'", a.keyColumn)
		}
	}

	if a.dispatcher == nil {
		a.dispatcher = GORMDispatcher{}
	}
	if a.counter == nil {
		a.counter = GORMCounter{}
	}
	a.extendedSelects = extendSelects(db.Statement.Selects, a.ordering)

	return a, nil
}

// checkUnbounded rejects a base query that already carries a limit or offset;
// those are the adapter's exclusive responsibility.
func checkUnbounded(db *gorm.DB) error {
	c, ok := db.Statement.Clauses["LIMIT"]
	if !ok {
		return nil
	}

	limitClause, ok := c.Expression.(clause.Limit)
	if !ok {
		return validationErrorf("unexpected LIMIT clause expression %T", c.Expression)
	}

	if limitClause.Limit != nil {
		return configurationErrorf("base query already carries a limit")
	}
	if limitClause.Offset != 0 {
		return configurationErrorf("base query already carries an offset")
	}

	return nil
}

// extendSelects appends missing sort columns to a narrowed SELECT list.
// Returns nil when the base query selects everything; the caller's payload
// shape is never narrowed.
func extendSelects(selects []string, ordering Orderings) []string {
	if len(selects) == 0 || lo.Contains(selects, "*") {
		return nil
	}

	extended := slices.Clone(selects)
	for _, column := range ordering.Columns() {
		if !lo.Contains(extended, column) {
			extended = append(extended, column)
		}
	}

	if len(extended) == len(selects) {
		return nil
	}

	return extended
}

// Ordering returns a copy of the adapter's sort specification.
func (a *Adapter[T]) Ordering() Orderings {
	return slices.Clone(a.ordering)
}

// session starts an independent query chain off the shared base. The base
// statement is never chained on directly.
func (a *Adapter[T]) session(ctx context.Context) *gorm.DB {
	if ctx == nil {
		ctx = context.Background()
	}

	return a.base.WithContext(ctx)
}

// unordered starts an independent chain with the declared ORDER BY cleared.
// The adapter owns ordering: the resolved (possibly reversed) specification
// is re-applied per call, so the declared clause must not linger underneath.
func (a *Adapter[T]) unordered(ctx context.Context) *gorm.DB {
	tx := a.session(ctx)
	// WithContext clones the statement, so this never touches the base query.
	delete(tx.Statement.Clauses, "ORDER BY")

	return tx
}

// CountItems counts the unbounded base query. ok=false means the backend
// cannot determine a count; that is a normal outcome, not an error.
func (a *Adapter[T]) CountItems(ctx context.Context) (count int64, ok bool, err error) {
	count, ok, err = a.counter.Count(ctx, a.session(ctx))
	if err != nil {
		return 0, false, executionErrorf("count items: %v", err)
	}

	return count, ok, nil
}

// GetKeysetItems fetches the page adjacent to the boundary. A nil boundary
// means the first page for BoundLower and the last page for BoundUpper.
// Items are always returned in forward sort order, each carrying the boundary
// tuple a continuation request can start from.
func (a *Adapter[T]) GetKeysetItems(ctx context.Context, offset, limit int, boundary Boundary, direction Bound) ([]KeysetItem[T], error) {
	tx, err := a.keysetQuery(ctx, offset, limit, boundary, direction, true)
	if err != nil {
		return nil, err
	}

	var rows []T
	if err := tx.Find(&rows).Error; err != nil {
		return nil, executionErrorf("fetch keyset items: %v", err)
	}

	if direction == BoundUpper {
		rows = lo.Reverse(rows)
	}

	items := make([]KeysetItem[T], 0, len(rows))
	for i, row := range rows {
		items = append(items, KeysetItem[T]{
			Key:      a.keyFor(row, i),
			Payload:  row,
			Boundary: a.extractBoundary(row),
		})
	}

	return items, nil
}

// CountKeysetItems counts the rows GetKeysetItems would return for the same
// arguments. Unlike CountItems, an indeterminate count is an ErrExecution
// here: the caller explicitly asked for a number.
func (a *Adapter[T]) CountKeysetItems(ctx context.Context, offset, limit int, boundary Boundary, direction Bound) (int64, error) {
	tx, err := a.keysetQuery(ctx, offset, limit, boundary, direction, false)
	if err != nil {
		return 0, err
	}

	return a.countBounded(ctx, tx, offset, limit)
}

// GetOffsetItems fetches a plain offset/limit page in declared order. No
// predicate is injected and no boundary handling happens.
func (a *Adapter[T]) GetOffsetItems(ctx context.Context, offset, limit int) ([]T, error) {
	tx := a.ordering.Apply(a.unordered(ctx))
	tx = applyBounds(tx, offset, limit)

	var rows []T
	if err := tx.Find(&rows).Error; err != nil {
		return nil, executionErrorf("fetch offset items: %v", err)
	}

	return rows, nil
}

// CountOffsetItems counts the rows GetOffsetItems would return. The count
// mechanism requires a bounded statement shape, so a missing limit is
// ErrConfiguration.
func (a *Adapter[T]) CountOffsetItems(ctx context.Context, offset, limit int) (int64, error) {
	if limit == NoLimit {
		return 0, configurationErrorf("counting offset items requires a limit")
	}

	tx := a.ordering.Apply(a.unordered(ctx))
	tx = applyBounds(tx, offset, limit)

	return a.countBounded(ctx, tx, offset, limit)
}

// keysetQuery shapes the query shared by the keyset fetch and count paths:
// resolved (possibly reversed) ordering, keyset predicate conjoined with the
// base query's filters, then offset/limit.
func (a *Adapter[T]) keysetQuery(ctx context.Context, offset, limit int, boundary Boundary, direction Bound, extendProjection bool) (*gorm.DB, error) {
	ordering := a.ordering
	switch direction {
	case BoundLower:
	case BoundUpper:
		ordering = a.ordering.Reversed()
	default:
		return nil, configurationErrorf("invalid boundary direction '%s'", direction)
	}

	expr, err := Calculate(ordering, boundary)
	if err != nil {
		return nil, err
	}

	tx := a.unordered(ctx)
	if extendProjection && a.extendedSelects != nil {
		tx = tx.Select(a.extendedSelects)
	}
	tx = ordering.Apply(tx)

	if expr != nil {
		predicate, err := a.dispatcher.Render(expr)
		if err != nil {
			return nil, err
		}
		tx = tx.Clauses(predicate)
	}

	return applyBounds(tx, offset, limit), nil
}

// countBounded counts a shaped query. Bounded shapes go through a FROM
// subquery so the limit and offset constrain the counted set instead of the
// count statement.
func (a *Adapter[T]) countBounded(ctx context.Context, tx *gorm.DB, offset, limit int) (int64, error) {
	target := tx
	if offset > 0 || limit != NoLimit {
		target = a.session(ctx).Session(&gorm.Session{NewDB: true}).Table("(?) AS paged", tx)
	}

	count, ok, err := a.counter.Count(ctx, target)
	if err != nil {
		return 0, executionErrorf("count: %v", err)
	}
	if !ok {
		return 0, executionErrorf("backend cannot determine a count")
	}
	if count < 0 {
		return 0, executionErrorf("backend returned negative count %d", count)
	}

	return count, nil
}

func applyBounds(tx *gorm.DB, offset, limit int) *gorm.DB {
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	if limit != NoLimit {
		tx = tx.Limit(limit)
	}

	return tx
}

func (a *Adapter[T]) keyFor(row T, position int) any {
	if a.keyColumn == "" {
		return position
	}

	return a.getters[a.keyColumn](row)
}

func (a *Adapter[T]) extractBoundary(row T) Boundary {
	boundary := make(Boundary, len(a.ordering))
	for _, orderBy := range a.ordering {
		boundary[orderBy.Column] = a.getters[orderBy.Column](row)
	}

	return boundary
}
