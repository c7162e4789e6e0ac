package repos

import "gorm.io/gorm"

// lockingSupported reports whether the dialect understands FOR UPDATE
// clauses. Tests run on sqlite, which does not.
func lockingSupported(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}
