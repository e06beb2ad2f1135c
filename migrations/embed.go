// Package migrations embeds the SQL schema for each supported driver.
package migrations

import (
	"embed"
	"fmt"
)

//go:embed sqlite/*.sql mysql/*.sql
var FS embed.FS

// Dir returns the directory inside FS holding the migrations for driver
func Dir(driver string) (string, error) {
	switch driver {
	case "sqlite3", "":
		return "sqlite", nil
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("no migrations for driver %s", driver)
	}
}
