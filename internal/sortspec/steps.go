package sortspec

// ByName orders by the string returned from name
func ByName[E any](name func(E) string) Step[E] {
	return Step[E]{
		Name:    "name",
		Icon:    "A-Z",
		Tooltip: "Sort by name",
		Key: func(e E) Key {
			return String(name(e))
		},
	}
}

// ByPriority orders by descending priority
func ByPriority[E any](priority func(E) int) Step[E] {
	return Step[E]{
		Name:    "priority",
		Icon:    "!",
		Tooltip: "Sort by priority, highest first",
		Key: func(e E) Key {
			return Number(-priority(e))
		},
	}
}
