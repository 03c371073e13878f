package postgres

import (
	"strings"
	"testing"
)

// The manager listing joins users with equipment_managers, and both tables
// have an id column. Every selected column must carry the u alias, and the
// list must stay in sync with userColumns so collectUsers scans correctly.
func TestManagerUserColumnsQualified(t *testing.T) {
	var stripped []string
	for _, col := range strings.Split(managerUserColumns, ",") {
		col = strings.TrimSpace(col)
		if !strings.HasPrefix(col, "u.") {
			t.Errorf("column %q is not qualified with the u alias", col)
		}
		stripped = append(stripped, strings.TrimPrefix(col, "u."))
	}

	var plain []string
	for _, col := range strings.Split(userColumns, ",") {
		plain = append(plain, strings.TrimSpace(col))
	}

	if got, want := strings.Join(stripped, ", "), strings.Join(plain, ", "); got != want {
		t.Errorf("managerUserColumns = %q, want the userColumns order %q", got, want)
	}
}
