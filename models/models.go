package models

// All lists every table for AutoMigrate, parents first.
func All() []any {
	return []any{
		&User{},
		&LoginToken{},
		&TourPackage{},
		&PackagePrice{},
		&PackageTranslation{},
		&PageSection{},
		&PageSectionTranslation{},
		&FxRate{},
		&Order{},
		&OrderItem{},
	}
}
