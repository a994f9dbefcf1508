package statement

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"fibra-backend/internal/config"
	"fibra-backend/internal/database"
	"fibra-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engine reconciles unbilled production and expenses into payment statements.
// It keeps no state between calls.
type Engine struct {
	db     *gorm.DB
	prefix string
	log    *logrus.Logger
	now    func() time.Time
}

func NewEngine(db *gorm.DB, prefix string) *Engine {
	return &Engine{
		db:     db,
		prefix: prefix,
		log:    config.GetLogger(),
		now:    time.Now,
	}
}

// Prefix is the correlative prefix used when a request does not name one.
func (e *Engine) Prefix() string {
	return e.prefix
}

type productionRow struct {
	ID                  uint
	Date                time.Time
	ActivityName        string
	WorkerName          string
	Quantity            decimal.Decimal
	Triot               string
	Tramo               string
	RateID              *uint
	UnitProductionValue decimal.NullDecimal
	UnitSaleValue       decimal.NullDecimal
}

func (r productionRow) item() ProductionItem {
	return ProductionItem{
		ID:                  r.ID,
		Date:                r.Date,
		ActivityName:        r.ActivityName,
		WorkerName:          r.WorkerName,
		Triot:               r.Triot,
		Tramo:               r.Tramo,
		Quantity:            r.Quantity,
		UnitProductionValue: r.UnitProductionValue.Decimal,
		UnitSaleValue:       r.UnitSaleValue.Decimal,
		ProductionAmount:    r.Quantity.Mul(r.UnitProductionValue.Decimal),
		SaleAmount:          r.Quantity.Mul(r.UnitSaleValue.Decimal),
	}
}

const unbilledProduction = "NOT EXISTS (SELECT 1 FROM statement_production_links l WHERE l.production_entry_id = p.id)"
const unbilledExpense = "NOT EXISTS (SELECT 1 FROM statement_expense_links l WHERE l.expense_id = x.id)"

// companyProduction selects the production of a company's workers with the
// matching rate left-joined, so rows without a rate can be counted.
func companyProduction(db *gorm.DB, company string) *gorm.DB {
	return db.Table("production_entries AS p").
		Select("p.id, p.date, p.activity_name, p.worker_name, p.quantity, p.triot, p.tramo, " +
			"a.id AS rate_id, a.unit_production_value, a.unit_sale_value").
		Joins("JOIN workers w ON w.name = p.worker_name").
		Joins("LEFT JOIN activities a ON a.description = p.activity_name").
		Where("w.company_name = ?", company).
		Order("p.date ASC, p.id ASC")
}

func companyExpenses(db *gorm.DB, company string) *gorm.DB {
	return db.Table("expenses AS x").
		Select("x.id, x.date, x.description, x.note, x.amount").
		Where("x.company_name = ?", company).
		Order("x.date ASC, x.id ASC")
}

// ListEligibleProduction returns the company's production that no statement has
// billed yet, priced with the activity rates. Rows whose activity has no rate are
// left out and counted.
func (e *Engine) ListEligibleProduction(ctx context.Context, company string) (*EligibleProduction, error) {
	company = models.CompanyKey(company)
	var rows []productionRow
	if err := companyProduction(e.db.WithContext(ctx), company).
		Where(unbilledProduction).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := &EligibleProduction{Items: make([]ProductionItem, 0, len(rows))}
	for _, r := range rows {
		if r.RateID == nil {
			out.UnmatchedRates++
			continue
		}
		out.Items = append(out.Items, r.item())
	}
	if out.UnmatchedRates > 0 {
		e.log.WithFields(logrus.Fields{
			"company":   company,
			"unmatched": out.UnmatchedRates,
		}).Warn("production rows without activity rate left out of eligibility")
	}
	return out, nil
}

// ListEligibleExpenses returns the company's expenses that no statement has
// billed yet.
func (e *Engine) ListEligibleExpenses(ctx context.Context, company string) ([]ExpenseItem, error) {
	items := []ExpenseItem{}
	if err := companyExpenses(e.db.WithContext(ctx), models.CompanyKey(company)).
		Where(unbilledExpense).
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// NextCorrelativeID previews the id the next commit with this prefix would
// get. It never reserves it.
func (e *Engine) NextCorrelativeID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		prefix = e.prefix
	}
	db := e.db.WithContext(ctx)

	last, err := maxSuffix(db, prefix)
	if err != nil {
		return "", err
	}
	var seq models.StatementSequence
	err = db.Where("prefix = ?", prefix).Limit(1).Find(&seq).Error
	if err != nil {
		return "", err
	}
	if seq.LastValue > last {
		last = seq.LastValue
	}
	return FormatCorrelative(prefix, last+1), nil
}

// maxSuffix scans stored statements; the suffix is compared numerically so
// PREFIX-100 sorts after PREFIX-99.
func maxSuffix(db *gorm.DB, prefix string) (int, error) {
	var ids []string
	if err := db.Model(&models.PaymentStatement{}).
		Where("correlative LIKE ?", prefix+"-%").
		Pluck("correlative", &ids).Error; err != nil {
		return 0, err
	}
	last := 0
	for _, id := range ids {
		if n, ok := ParseCorrelative(id, prefix); ok && n > last {
			last = n
		}
	}
	return last, nil
}

// allocate increments the prefix's counter row inside tx. The UPDATE holds the
// row until tx ends, so concurrent commits with the same prefix queue here.
func allocate(tx *gorm.DB, prefix string) (string, error) {
	res := tx.Model(&models.StatementSequence{}).
		Where("prefix = ?", prefix).
		UpdateColumn("last_value", gorm.Expr("last_value + ?", 1))
	if res.Error != nil {
		return "", res.Error
	}

	if res.RowsAffected == 0 {
		last, err := maxSuffix(tx, prefix)
		if err != nil {
			return "", err
		}
		seq := models.StatementSequence{Prefix: prefix, LastValue: last + 1}
		if err := tx.Create(&seq).Error; err != nil {
			if isDuplicateKey(err) {
				// another commit created the row first
				return "", ErrDuplicateStatementID
			}
			return "", err
		}
		return FormatCorrelative(prefix, seq.LastValue), nil
	}

	var seq models.StatementSequence
	if err := tx.Where("prefix = ?", prefix).First(&seq).Error; err != nil {
		return "", err
	}
	return FormatCorrelative(prefix, seq.LastValue), nil
}

// resync moves the counter past any statement stored outside it.
func resync(tx *gorm.DB, prefix string) error {
	last, err := maxSuffix(tx, prefix)
	if err != nil {
		return err
	}
	return tx.Model(&models.StatementSequence{}).
		Where("prefix = ? AND last_value < ?", prefix, last).
		UpdateColumn("last_value", last).Error
}

// CommitRequest is the caller's selection. Totals are always recomputed from
// the stored records.
type CommitRequest struct {
	CompanyName   string
	Date          time.Time
	Prefix        string
	ProductionIDs []uint
	ExpenseIDs    []uint
	CreatedBy     string
}

func (r *CommitRequest) normalize() error {
	r.CompanyName = models.CompanyKey(r.CompanyName)
	if r.CompanyName == "" {
		return &ValidationError{Field: "company", Message: "is required"}
	}
	r.ProductionIDs = uniqueIDs(r.ProductionIDs)
	r.ExpenseIDs = uniqueIDs(r.ExpenseIDs)
	if len(r.ProductionIDs) == 0 && len(r.ExpenseIDs) == 0 {
		return &ValidationError{Message: "select at least one production or expense record"}
	}
	return nil
}

// CommitStatement writes the statement and its links in one transaction. If
// any selected record was billed meanwhile it returns a *ConflictError and
// writes nothing.
func (e *Engine) CommitStatement(ctx context.Context, req CommitRequest) (*models.PaymentStatement, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	if req.Prefix == "" {
		req.Prefix = e.prefix
	}
	if req.Date.IsZero() {
		req.Date = e.now()
	}
	y, m, d := req.Date.Date()
	req.Date = time.Date(y, m, d, 0, 0, 0, 0, req.Date.Location())

	st, err := e.commitOnce(ctx, req, false)
	if errors.Is(err, ErrDuplicateStatementID) {
		e.log.WithFields(logrus.Fields{
			"company": req.CompanyName,
			"prefix":  req.Prefix,
		}).Warn("correlative collision, retrying with resynced sequence")
		st, err = e.commitOnce(ctx, req, true)
	}
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"correlative": st.Correlative,
		"company":     st.CompanyName,
		"production":  len(st.ProductionLinks),
		"expenses":    len(st.ExpenseLinks),
		"net":         st.Net.String(),
	}).Info("payment statement committed")
	return st, nil
}

func (e *Engine) commitOnce(ctx context.Context, req CommitRequest, resyncFirst bool) (*models.PaymentStatement, error) {
	var out *models.PaymentStatement

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCompany(tx, req.CompanyName); err != nil {
			return err
		}

		if resyncFirst {
			if err := resync(tx, req.Prefix); err != nil {
				return err
			}
		}
		// allocating first serializes commits before the eligibility re-read
		id, err := allocate(tx, req.Prefix)
		if err != nil {
			return err
		}

		// edits and deletes of these rows wait for this commit
		if err := database.LockIDs(tx, &models.ProductionEntry{}, req.ProductionIDs); err != nil {
			return err
		}
		if err := database.LockIDs(tx, &models.Expense{}, req.ExpenseIDs); err != nil {
			return err
		}

		production, expenses, err := selectItems(tx, req.CompanyName, req.ProductionIDs, req.ExpenseIDs)
		if err != nil {
			return err
		}
		totals := ComputeTotals(production, expenses)

		st := models.PaymentStatement{
			Correlative:     id,
			Date:            req.Date,
			CompanyName:     req.CompanyName,
			TotalProduction: totals.TotalProduction,
			TotalSale:       totals.TotalSale,
			TotalExpenses:   totals.TotalExpenses,
			Net:             totals.Net,
			CreatedBy:       req.CreatedBy,
		}
		if err := tx.Omit(clause.Associations).Create(&st).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrDuplicateStatementID
			}
			return err
		}

		prodLinks := make([]models.StatementProductionLink, 0, len(production))
		for _, p := range production {
			prodLinks = append(prodLinks, models.StatementProductionLink{
				Correlative:         id,
				ProductionEntryID:   p.ID,
				Date:                p.Date,
				ActivityName:        p.ActivityName,
				WorkerName:          p.WorkerName,
				Quantity:            p.Quantity,
				UnitProductionValue: p.UnitProductionValue,
				UnitSaleValue:       p.UnitSaleValue,
				ProductionAmount:    p.ProductionAmount,
				SaleAmount:          p.SaleAmount,
			})
		}
		if len(prodLinks) > 0 {
			if err := tx.Create(&prodLinks).Error; err != nil {
				if isDuplicateKey(err) {
					return &ConflictError{}
				}
				return err
			}
		}

		expLinks := make([]models.StatementExpenseLink, 0, len(expenses))
		for _, x := range expenses {
			expLinks = append(expLinks, models.StatementExpenseLink{
				Correlative: id,
				ExpenseID:   x.ID,
				Date:        x.Date,
				Description: x.Description,
				Amount:      x.Amount,
			})
		}
		if len(expLinks) > 0 {
			if err := tx.Create(&expLinks).Error; err != nil {
				if isDuplicateKey(err) {
					return &ConflictError{}
				}
				return err
			}
		}

		st.ProductionLinks = prodLinks
		st.ExpenseLinks = expLinks
		out = &st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func ensureCompany(db *gorm.DB, company string) error {
	var count int64
	if err := db.Model(&models.Company{}).Where("name = ?", company).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// selectItems re-reads the requested records and checks that every one is
// still eligible for company.
func selectItems(db *gorm.DB, company string, productionIDs, expenseIDs []uint) ([]ProductionItem, []ExpenseItem, error) {
	conflict := &ConflictError{}

	production := make([]ProductionItem, 0, len(productionIDs))
	if len(productionIDs) > 0 {
		var billed []uint
		if err := db.Model(&models.StatementProductionLink{}).
			Where("production_entry_id IN ?", productionIDs).
			Order("production_entry_id").
			Pluck("production_entry_id", &billed).Error; err != nil {
			return nil, nil, err
		}
		conflict.ProductionIDs = billed

		var rows []productionRow
		if err := companyProduction(db, company).
			Where("p.id IN ?", productionIDs).
			Scan(&rows).Error; err != nil {
			return nil, nil, err
		}
		found := make(map[uint]bool, len(rows))
		for _, r := range rows {
			if r.RateID == nil {
				return nil, nil, &ValidationError{
					Field:   "production_ids",
					Message: "activity '" + r.ActivityName + "' has no rate",
				}
			}
			found[r.ID] = true
			production = append(production, r.item())
		}
		if missing := missingIDs(productionIDs, found); len(missing) > 0 {
			return nil, nil, &ValidationError{
				Field:   "production_ids",
				Message: "not production of this company: " + formatIDs(missing),
			}
		}
	}

	expenses := make([]ExpenseItem, 0, len(expenseIDs))
	if len(expenseIDs) > 0 {
		var billed []uint
		if err := db.Model(&models.StatementExpenseLink{}).
			Where("expense_id IN ?", expenseIDs).
			Order("expense_id").
			Pluck("expense_id", &billed).Error; err != nil {
			return nil, nil, err
		}
		conflict.ExpenseIDs = billed

		if err := companyExpenses(db, company).
			Where("x.id IN ?", expenseIDs).
			Scan(&expenses).Error; err != nil {
			return nil, nil, err
		}
		found := make(map[uint]bool, len(expenses))
		for _, x := range expenses {
			found[x.ID] = true
		}
		if missing := missingIDs(expenseIDs, found); len(missing) > 0 {
			return nil, nil, &ValidationError{
				Field:   "expense_ids",
				Message: "not expenses of this company: " + formatIDs(missing),
			}
		}
	}

	if len(conflict.ProductionIDs) > 0 || len(conflict.ExpenseIDs) > 0 {
		return nil, nil, conflict
	}
	return production, expenses, nil
}

// Preview is what a commit with the same selection would produce right now.
type Preview struct {
	Correlative string
	Company     string
	Date        time.Time
	Production  []ProductionItem
	Expenses    []ExpenseItem
	Totals      Totals
}

func (e *Engine) Preview(ctx context.Context, company string, productionIDs, expenseIDs []uint) (*Preview, error) {
	req := CommitRequest{CompanyName: company, ProductionIDs: productionIDs, ExpenseIDs: expenseIDs}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	db := e.db.WithContext(ctx)
	if err := ensureCompany(db, req.CompanyName); err != nil {
		return nil, err
	}
	production, expenses, err := selectItems(db, req.CompanyName, req.ProductionIDs, req.ExpenseIDs)
	if err != nil {
		return nil, err
	}
	next, err := e.NextCorrelativeID(ctx, e.prefix)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Correlative: next,
		Company:     req.CompanyName,
		Date:        e.now(),
		Production:  production,
		Expenses:    expenses,
		Totals:      ComputeTotals(production, expenses),
	}, nil
}

// GetStatement loads a statement with its links in document order.
func (e *Engine) GetStatement(ctx context.Context, correlative string) (*models.PaymentStatement, error) {
	var st models.PaymentStatement
	err := e.db.WithContext(ctx).
		Preload("ProductionLinks", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC, production_entry_id ASC")
		}).
		Preload("ExpenseLinks", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC, expense_id ASC")
		}).
		Where("correlative = ?", correlative).
		First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListStatements returns statements newest first, optionally for one company.
func (e *Engine) ListStatements(ctx context.Context, company string) ([]models.PaymentStatement, error) {
	q := e.db.WithContext(ctx).Model(&models.PaymentStatement{})
	if company != "" {
		q = q.Where("company_name = ?", models.CompanyKey(company))
	}
	var out []models.PaymentStatement
	if err := q.Order("date DESC, created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func missingIDs(want []uint, found map[uint]bool) []uint {
	var out []uint
	for _, id := range want {
		if !found[id] {
			out = append(out, id)
		}
	}
	return out
}

func formatIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ", ")
}
