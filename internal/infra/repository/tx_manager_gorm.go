package repository

import (
	"context"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders      repo.OrderRepository
	carts       repo.AbandonedCartRepository
	discounts   repo.DiscountRepository
	tickets     repo.TicketRepository
	products    repo.ProductRepository
	cardDetails repo.CardDetailRepository
	auditLogs   repo.AuditLogRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository                 { return r.orders }
func (r *txReposGorm) AbandonedCarts() repo.AbandonedCartRepository { return r.carts }
func (r *txReposGorm) Discounts() repo.DiscountRepository           { return r.discounts }
func (r *txReposGorm) Tickets() repo.TicketRepository               { return r.tickets }
func (r *txReposGorm) Products() repo.ProductRepository             { return r.products }
func (r *txReposGorm) CardDetails() repo.CardDetailRepository       { return r.cardDetails }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository           { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:      NewOrderGormRepository(tx),
			carts:       NewAbandonedCartGormRepository(tx),
			discounts:   NewDiscountGormRepository(tx),
			tickets:     NewTicketGormRepository(tx),
			products:    NewProductGormRepository(tx),
			cardDetails: NewCardDetailGormRepository(tx),
			auditLogs:   NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}
