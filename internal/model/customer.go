// internal/model/customer.go
package model

import "time"

type Customer struct {
	ID               int        `db:"id" json:"id"`
	HoldingOrgID     *int       `db:"holding_org_id" json:"holding_org_id,omitempty"`
	MemberOrgID      *int       `db:"member_org_id" json:"member_org_id,omitempty"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	Email            string     `db:"email" json:"email"`
	CellPhone        string     `db:"cell_phone" json:"cell_phone"`
	Location         string     `db:"location" json:"location"`
	PreferredProduct string     `db:"preferred_product" json:"preferred_product"`
	PrefMsgChannel   Channel    `db:"pref_msg_channel" json:"pref_msg_channel"`
	Birthdate        *time.Time `db:"birthdate" json:"birthdate,omitempty"`
	// BirthdateNoYear holds MMDD of the birthdate for year-independent
	// date-range filtering, e.g. "0314" for March 14.
	BirthdateNoYear string `db:"birthdate_no_year" json:"birthdate_no_year"`
}

// PreferredChannel resolves the customer's stored channel preference,
// defaulting to email when none is set.
func (c *Customer) PreferredChannel() Channel {
	if c.PrefMsgChannel == "" {
		return ChannelEmail
	}
	return c.PrefMsgChannel
}

// Record flattens the customer into the attribute map used for template
// placeholder resolution. Keys match criteria attribute names.
func (c *Customer) Record() map[string]string {
	rec := map[string]string{
		"firstName":        c.FirstName,
		"lastName":         c.LastName,
		"email":            c.Email,
		"cellPhone":        c.CellPhone,
		"location":         c.Location,
		"preferredProduct": c.PreferredProduct,
	}
	if c.Birthdate != nil {
		rec["birthdate"] = c.Birthdate.Format("2006-01-02")
	}
	return rec
}

// Destination returns the delivery address for the given channel.
func (c *Customer) Destination(channel Channel) string {
	if channel == ChannelEmail {
		return c.Email
	}
	return c.CellPhone
}
