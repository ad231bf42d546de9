package domain

// Customer is a registered buyer. Email, when present, is unique.
type Customer struct {
	ID        int64
	FirstName string
	LastName  string
	Phone     *string
	Address   *string
	Email     *string
}

// FullName returns the customer's display name.
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
