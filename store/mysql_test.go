package store

import "testing"

// TestMySQLStoreInterfaceCompliance checks MySQLStore against Store without
// requiring a live database connection.
func TestMySQLStoreInterfaceCompliance(t *testing.T) {
	var _ Store = (*MySQLStore)(nil)
}
