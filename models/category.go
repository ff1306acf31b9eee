package models

// Category is static reference data grouping threads. Seeded at startup when
// the table is empty.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Slug        string `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"size:255" json:"description"`
}

// DefaultCategories are created on first boot against an empty table.
var DefaultCategories = []Category{
	{Name: "General", Slug: "general", Description: "General discussion"},
	{Name: "Help", Slug: "help", Description: "Questions and troubleshooting"},
	{Name: "Showcase", Slug: "showcase", Description: "Show off what you built"},
	{Name: "Off-Topic", Slug: "off-topic", Description: "Anything else"},
}
