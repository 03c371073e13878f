// seed fills the local dev database with demo lab inventory: an admin, a
// manager, two regular users, RF equipment types with access grants, and a
// handful of bookings. Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rfbooking/rfbooking/internal/infrastructure/postgres"
)

type userSpec struct {
	email  string
	name   string
	roleID int64
}

var users = []userSpec{
	{"admin@rf.local", "Lab Admin", 1},
	{"manager@rf.local", "Bench Manager", 2},
	{"alice@rf.local", "Alice", 3},
	{"bob@rf.local", "Bob", 3},
}

type typeSpec struct {
	name        string
	description string
}

var types = []typeSpec{
	{"Spectrum Analyzers", "Swept and real-time spectrum analyzers"},
	{"Signal Generators", "RF and vector signal generators"},
	{"Oscilloscopes", "General purpose bench scopes"},
}

type equipmentSpec struct {
	name     string
	location string
	typeName string
	// days until next calibration; 0 means no calibration tracked
	calibrationDays int
}

var items = []equipmentSpec{
	{"R&S FSW26 Spectrum Analyzer", "Bench 1", "Spectrum Analyzers", 5},
	{"Keysight N9030B PXA", "Bench 1", "Spectrum Analyzers", 90},
	{"R&S SMW200A Vector Generator", "Bench 2", "Signal Generators", 30},
	{"Keysight E8257D PSG", "Bench 2", "Signal Generators", 0},
	{"Tektronix MSO64", "Bench 3", "Oscilloscopes", 14},
	{"Anechoic Chamber", "Room 12", "", 0},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Bootstrap(ctx, pool); err != nil {
		log.Fatalf("db bootstrap: %v", err)
	}

	userIDs := map[string]int64{}
	for _, u := range users {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO users (email, name, role_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role_id = EXCLUDED.role_id
			RETURNING id`,
			u.email, u.name, u.roleID,
		).Scan(&id)
		if err != nil {
			log.Fatalf("upsert user %s: %v", u.email, err)
		}
		userIDs[u.email] = id
	}

	typeIDs := map[string]int64{}
	for _, t := range types {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO equipment_types (name, description)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
			RETURNING id`,
			t.name, t.description,
		).Scan(&id)
		if err != nil {
			log.Fatalf("upsert type %s: %v", t.name, err)
		}
		typeIDs[t.name] = id
	}

	// Everyone gets access to every type; real installs are stingier.
	for _, u := range users {
		for _, t := range types {
			_, err := pool.Exec(ctx, `
				INSERT INTO equipment_type_users (type_id, user_id, granted_by)
				VALUES ($1, $2, $3)
				ON CONFLICT (type_id, user_id) DO NOTHING`,
				typeIDs[t.name], userIDs[u.email], userIDs["admin@rf.local"],
			)
			if err != nil {
				log.Fatalf("grant access: %v", err)
			}
		}
	}

	var inserted int
	equipmentIDs := map[string]int64{}
	for _, item := range items {
		var typeID *int64
		if item.typeName != "" {
			id := typeIDs[item.typeName]
			typeID = &id
		}
		var calibration *time.Time
		if item.calibrationDays > 0 {
			d := time.Now().UTC().AddDate(0, 0, item.calibrationDays)
			calibration = &d
		}

		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO equipment (name, location, type_id, next_calibration_date)
			SELECT $1, $2, $3, $4
			WHERE NOT EXISTS (SELECT 1 FROM equipment WHERE name = $1)
			RETURNING id`,
			item.name, item.location, typeID, calibration,
		).Scan(&id)
		if err != nil {
			// No row returned means the item already exists.
			continue
		}
		equipmentIDs[item.name] = id
		inserted++
	}

	for name, id := range equipmentIDs {
		_, err := pool.Exec(ctx, `
			INSERT INTO equipment_managers (equipment_id, manager_id, assigned_by)
			VALUES ($1, $2, $3)
			ON CONFLICT (equipment_id, manager_id) DO NOTHING`,
			id, userIDs["manager@rf.local"], userIDs["admin@rf.local"],
		)
		if err != nil {
			log.Fatalf("assign manager for %s: %v", name, err)
		}
	}

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	var bookings int
	for name, id := range equipmentIDs {
		_, err := pool.Exec(ctx, `
			INSERT INTO bookings (user_id, equipment_id, start_date, end_date, start_time, end_time, description)
			VALUES ($1, $2, $3, $3, '10:00', '12:00', $4)`,
			userIDs["alice@rf.local"], id, tomorrow, "Seed booking for "+name,
		)
		if err != nil {
			log.Fatalf("insert booking for %s: %v", name, err)
		}
		bookings++
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Users:     %d  (admin@rf.local is the administrator)\n", len(users))
	fmt.Printf("  Types:     %d\n", len(types))
	fmt.Printf("  Equipment: %d new items\n", inserted)
	fmt.Printf("  Bookings:  %d for tomorrow 10:00-12:00\n", bookings)
	fmt.Println()
	fmt.Println("How to sign in:")
	fmt.Println()
	fmt.Println("  curl -s -X POST http://localhost:8080/api/auth/register \\")
	fmt.Println("    -H 'Content-Type: application/json' \\")
	fmt.Println("    -d '{\"email\":\"admin@rf.local\"}'")
	fmt.Println()
	fmt.Println("  # With the log email provider the magic link is printed to the server log.")
	fmt.Println("  # Redeem it:")
	fmt.Println()
	fmt.Println("  curl -s -X POST http://localhost:8080/api/auth/verify \\")
	fmt.Println("    -H 'Content-Type: application/json' \\")
	fmt.Println("    -d '{\"token\":\"TOKEN\"}'")
}
