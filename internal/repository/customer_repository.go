package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/centrocomm/messaging-backend/internal/model"
	"github.com/centrocomm/messaging-backend/internal/search"
)

// CustomerRepositoryInterface defines methods used by services
type CustomerRepositoryInterface interface {
	GetByID(id int) (*model.Customer, error)
	GetByIDs(ids []int) ([]model.Customer, error)
	FindByCondition(cond search.Condition) ([]model.Customer, error)
}

// CustomerRepository is the concrete implementation
type CustomerRepository struct {
	DB *sql.DB
}

const customerColumns = `
        id, holding_org_id, member_org_id, first_name, last_name, email,
        cell_phone, location, preferred_product, pref_msg_channel,
        birthdate, birthdate_no_year
`

func scanCustomer(row interface{ Scan(dest ...any) error }) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(
		&c.ID, &c.HoldingOrgID, &c.MemberOrgID, &c.FirstName, &c.LastName, &c.Email,
		&c.CellPhone, &c.Location, &c.PreferredProduct, &c.PrefMsgChannel,
		&c.Birthdate, &c.BirthdateNoYear,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID fetches a customer by ID
func (r *CustomerRepository) GetByID(id int) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	c, err := scanCustomer(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return c, nil
}

// GetByIDs fetches the customers for an explicit id list. Missing ids are
// silently absent from the result.
func (r *CustomerRepository) GetByIDs(ids []int) ([]model.Customer, error) {
	if len(ids) == 0 {
		return []model.Customer{}, nil
	}

	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = ANY($1) ORDER BY id`
	rows, err := r.DB.Query(query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCustomers(rows)
}

// FindByCondition fetches all customers matching a compiled filter condition.
// Used by the dispatcher to resolve a scheduled campaign's recipient set.
func (r *CustomerRepository) FindByCondition(cond search.Condition) ([]model.Customer, error) {
	clause, args, err := cond.SQL(0)
	if err != nil {
		return nil, fmt.Errorf("render filter condition: %w", err)
	}

	query := `SELECT ` + customerColumns + ` FROM customers WHERE ` + clause + ` ORDER BY id`
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCustomers(rows)
}

func collectCustomers(rows *sql.Rows) ([]model.Customer, error) {
	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}
