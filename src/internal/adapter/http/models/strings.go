package models

// String returns a pointer to v, for building requests in code.
func String(v string) *string {
	return &v
}
