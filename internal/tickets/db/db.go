package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"ms-admission/internal/admission"
	"ms-admission/internal/models"
)

// DB is the bun-backed ticket record store. It satisfies the coordinator's
// TicketStore contract: transactions on the same ticket id serialize, via
// serializable isolation plus a row lock on postgres; transactions on
// different ids never contend with each other.
type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

func (d *DB) isPostgres() bool {
	return d.Bun.Dialect().Name() == dialect.PG
}

// InTicketTx runs fn inside a transaction scoped to one ticket row.
func (d *DB) InTicketTx(ctx context.Context, ticketID string, fn func(ctx context.Context, tx admission.TicketTx) error) error {
	opts := &sql.TxOptions{}
	if d.isPostgres() {
		opts.Isolation = sql.LevelSerializable
	}
	return d.Bun.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &ticketTx{tx: tx, ticketID: ticketID, forUpdate: d.isPostgres()})
	})
}

type ticketTx struct {
	tx        bun.Tx
	ticketID  string
	forUpdate bool
}

func (t *ticketTx) Get(ctx context.Context) (*models.Ticket, error) {
	var ticket models.Ticket
	q := t.tx.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", t.ticketID).
		Limit(1)
	if t.forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (t *ticketTx) Update(ctx context.Context, ticket *models.Ticket) error {
	_, err := t.tx.NewUpdate().
		Model(ticket).
		Column("status", "scans", "holder_name", "holder_email", "holder_phone",
			"previous_holder", "cancel_reason", "updated_at").
		Where("ticket_id = ?", ticket.TicketID).
		Exec(ctx)
	return err
}

// CreateTicket inserts a newly issued ticket.
func (d *DB) CreateTicket(ctx context.Context, ticket models.Ticket) error {
	_, err := d.Bun.NewInsert().Model(&ticket).Exec(ctx)
	return err
}

// GetTicketByID reads a ticket outside any transaction.
func (d *DB) GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", ticketID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// TicketsByPurchase lists all tickets issued under one purchase.
func (d *DB) TicketsByPurchase(ctx context.Context, purchaseID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("purchase_id = ?", purchaseID).
		Order("issued_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
