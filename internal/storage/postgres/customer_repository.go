package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const customerColumns = `id, name, active, COALESCE(cart_id, ''), version, created_at, updated_at`

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{db: store.DB()}
}

// CreateWithCart сохраняет покупателя и пустую корзину в одной транзакции.
func (r *customerRepository) CreateWithCart(ctx context.Context, customer domain.Customer, cart domain.Cart) (err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO customers (id, name, active, cart_id, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		customer.ID, customer.Name, customer.Active, cart.ID,
		customer.Version, customer.CreatedAt, customer.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("insert customer: %w", err)
	}

	if err = insertCart(ctx, tx, customer.ID, cart); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create customer: %w", err)
	}
	return nil
}

func (r *customerRepository) Save(ctx context.Context, customer domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE customers
		SET name = $1,
		    active = $2,
		    version = version + 1,
		    updated_at = $3
		WHERE id = $4
		  AND version = $5
	`, customer.Name, customer.Active, customer.UpdatedAt, customer.ID, customer.Version)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		if _, findErr := r.FindByID(ctx, customer.ID); findErr != nil {
			return findErr
		}
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *customerRepository) FindByID(ctx context.Context, id string) (domain.Customer, error) {
	return r.findOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

func (r *customerRepository) FindActiveByID(ctx context.Context, id string) (domain.Customer, error) {
	return r.findOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1 AND active`, id)
}

func (r *customerRepository) FindAllActive(ctx context.Context) ([]domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE active
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list active customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

func (r *customerRepository) CountActive(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE active`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active customers: %w", err)
	}
	return n, nil
}

func (r *customerRepository) GetCart(ctx context.Context, customerID string) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, version, created_at, updated_at
		FROM carts
		WHERE customer_id = $1
	`, customerID).Scan(&cart.ID, &cart.CustomerID, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cart{}, domain.NewNotFound(domain.EntityCart, customerID)
		}
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}

	positions, err := r.loadPositions(ctx, cart.ID)
	if err != nil {
		return domain.Cart{}, err
	}
	cart.Positions = positions
	return cart, nil
}

// AttachCart создаёт корзину для покупателя, у которого её нет.
func (r *customerRepository) AttachCart(ctx context.Context, customer domain.Customer, cart domain.Cart) (err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE customers
		SET cart_id = $1,
		    version = version + 1
		WHERE id = $2
	`, cart.ID, customer.ID)
	if err != nil {
		return fmt.Errorf("link cart: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = domain.NewNotFound(domain.EntityCustomer, customer.ID)
		return err
	}

	if err = insertCart(ctx, tx, customer.ID, cart); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit attach cart: %w", err)
	}
	return nil
}

// SaveCart обновляет версию корзины и переписывает набор позиций в одной транзакции.
func (r *customerRepository) SaveCart(ctx context.Context, cart domain.Cart) (err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE carts
		SET version = version + 1,
		    updated_at = $1
		WHERE id = $2
		  AND version = $3
	`, cart.UpdatedAt, cart.ID, cart.Version)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM carts WHERE id = $1)`, cart.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check cart exists: %w", err)
		}
		if !exists {
			err = domain.NewNotFound(domain.EntityCart, cart.ID)
			return err
		}
		err = domain.ErrVersionConflict
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_positions WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("delete cart positions: %w", err)
	}
	for _, p := range cart.Positions {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO cart_positions (id, cart_id, product_id, quantity, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, p.ID, cart.ID, p.ProductID, p.Quantity, p.CreatedAt, p.UpdatedAt); err != nil {
			return fmt.Errorf("insert cart position: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save cart: %w", err)
	}
	return nil
}

func (r *customerRepository) loadPositions(ctx context.Context, cartID string) ([]domain.Position, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, cart_id, product_id, quantity, created_at, updated_at
		FROM cart_positions
		WHERE cart_id = $1
		ORDER BY created_at ASC, id ASC
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var p domain.Position
		if err := rows.Scan(&p.ID, &p.CartID, &p.ProductID, &p.Quantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart positions: %w", err)
	}
	return positions, nil
}

func (r *customerRepository) findOne(ctx context.Context, query, id string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.NewNotFound(domain.EntityCustomer, id)
		}
		return domain.Customer{}, err
	}
	return c, nil
}

func insertCart(ctx context.Context, tx *sql.Tx, customerID string, cart domain.Cart) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO carts (id, customer_id, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`, cart.ID, customerID, cart.Version, cart.CreatedAt, cart.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Active, &c.CartID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, err
		}
		return domain.Customer{}, fmt.Errorf("scan customer: %w", err)
	}
	return c, nil
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
