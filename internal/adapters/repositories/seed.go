package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type SchoolSeed struct {
	SchoolID      int64    `json:"school_id"`
	Name          string   `json:"name"`
	Lat           *float64 `json:"lat"`
	Lon           *float64 `json:"lon"`
	DismissalTime string   `json:"dismissal_time"`
}

type StudentSeed struct {
	StudentID int64  `json:"student_id"`
	Name      string `json:"name"`
	SchoolID  int64  `json:"school_id"`
	Active    bool   `json:"active"`
}

type AbsenceSeed struct {
	StudentID int64  `json:"student_id"`
	Date      string `json:"date"`
}

type rosterSeed struct {
	Schools  []SchoolSeed  `json:"schools"`
	Students []StudentSeed `json:"students"`
	Absences []AbsenceSeed `json:"absences"`
}

func loadSeed(jsonPath string) (*rosterSeed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed roster: read %q: %w", jsonPath, err)
	}

	var data rosterSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed roster: parse json: %w", err)
	}

	for i, s := range data.Schools {
		if s.SchoolID <= 0 {
			return nil, fmt.Errorf("seed roster: invalid school_id at index %d: %d", i+1, s.SchoolID)
		}
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("seed roster: school at index %d: name cannot be empty", i+1)
		}
		if strings.TrimSpace(s.DismissalTime) == "" {
			return nil, fmt.Errorf("seed roster: school %q: dismissal_time cannot be empty", s.Name)
		}
	}
	for i, s := range data.Students {
		if s.StudentID <= 0 {
			return nil, fmt.Errorf("seed roster: invalid student_id at index %d: %d", i+1, s.StudentID)
		}
	}

	return &data, nil
}

// Populate the SQLite database with roster data from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	data, err := loadSeed(jsonPath)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed roster: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range data.Schools {
		_, err := tx.Exec(
			`INSERT OR REPLACE INTO schools (school_id, name, lat, lon, dismissal_time) VALUES (?, ?, ?, ?, ?);`,
			s.SchoolID, s.Name, s.Lat, s.Lon, s.DismissalTime,
		)
		if err != nil {
			return fmt.Errorf("seed roster: insert school_id=%d: %w", s.SchoolID, err)
		}
	}

	for _, s := range data.Students {
		_, err := tx.Exec(
			`INSERT OR REPLACE INTO students (student_id, name, school_id, active) VALUES (?, ?, ?, ?);`,
			s.StudentID, s.Name, s.SchoolID, s.Active,
		)
		if err != nil {
			return fmt.Errorf("seed roster: insert student_id=%d: %w", s.StudentID, err)
		}
	}

	for _, a := range data.Absences {
		_, err := tx.Exec(
			`INSERT OR REPLACE INTO absences (student_id, absence_date) VALUES (?, ?);`,
			a.StudentID, a.Date,
		)
		if err != nil {
			return fmt.Errorf("seed roster: insert absence student_id=%d: %w", a.StudentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed roster: commit tx: %w", err)
	}

	return nil
}

// Populate the PostgreSQL database with roster data from a JSON file.
func SeedFromJSONPostgres(db *sql.DB, jsonPath string) error {
	data, err := loadSeed(jsonPath)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed roster: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range data.Schools {
		_, err := tx.Exec(
			`INSERT INTO schools (school_id, name, lat, lon, dismissal_time)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (school_id) DO UPDATE
			 SET name = EXCLUDED.name, lat = EXCLUDED.lat, lon = EXCLUDED.lon,
			     dismissal_time = EXCLUDED.dismissal_time;`,
			s.SchoolID, s.Name, s.Lat, s.Lon, s.DismissalTime,
		)
		if err != nil {
			return fmt.Errorf("seed roster: insert school_id=%d: %w", s.SchoolID, err)
		}
	}

	for _, s := range data.Students {
		_, err := tx.Exec(
			`INSERT INTO students (student_id, name, school_id, active)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (student_id) DO UPDATE
			 SET name = EXCLUDED.name, school_id = EXCLUDED.school_id, active = EXCLUDED.active;`,
			s.StudentID, s.Name, s.SchoolID, s.Active,
		)
		if err != nil {
			return fmt.Errorf("seed roster: insert student_id=%d: %w", s.StudentID, err)
		}
	}

	for _, a := range data.Absences {
		_, err := tx.Exec(
			`INSERT INTO absences (student_id, absence_date) VALUES ($1, $2)
			 ON CONFLICT (student_id, absence_date) DO NOTHING;`,
			a.StudentID, a.Date,
		)
		if err != nil {
			return fmt.Errorf("seed roster: insert absence student_id=%d: %w", a.StudentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed roster: commit tx: %w", err)
	}

	return nil
}
