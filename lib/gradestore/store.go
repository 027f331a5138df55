package gradestore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Store keeps the averages computed on each run so a student's trend can be
// followed across runs.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

type StudentRecord struct {
	Student string
	// Average is nil when the student had no grade.
	Average      *float64
	VeryBad      int
	Insufficient int
}

type Snapshot struct {
	Class    string
	Term     string
	Time     time.Time
	Students []StudentRecord
}

// Push saves a snapshot as a new run and returns its id.
func (s Store) Push(ctx context.Context, snapshot Snapshot) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	runId := uuid.NewString()
	_, err = tx.ExecContext(
		ctx,
		"insert into grade_run (id, class, term, time) values (?, ?, ?, ?)",
		runId, snapshot.Class, snapshot.Term, snapshot.Time.Unix(),
	)
	if err != nil {
		return "", err
	}

	for i, student := range snapshot.Students {
		var average sql.NullFloat64
		if student.Average != nil {
			average = sql.NullFloat64{Float64: *student.Average, Valid: true}
		}
		_, err = tx.ExecContext(
			ctx,
			`insert into student_average
				(run_id, position, student, average, very_bad, insufficient)
				values (?, ?, ?, ?, ?, ?)`,
			runId, i, student.Student, average, student.VeryBad, student.Insufficient,
		)
		if err != nil {
			return "", err
		}
	}

	return runId, tx.Commit()
}

type AveragePoint struct {
	RunId        string
	Term         string
	Time         time.Time
	Average      *float64
	VeryBad      int
	Insufficient int
}

// History returns a student's records in a class, oldest run first.
func (s Store) History(ctx context.Context, class, student string) ([]AveragePoint, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select r.id, r.term, r.time, a.average, a.very_bad, a.insufficient
			from student_average a
			join grade_run r on r.id = a.run_id
			where r.class = ? and a.student = ?
			order by r.time, r.rowid`,
		class, student,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []AveragePoint{}
	for rows.Next() {
		var (
			point   AveragePoint
			unix    int64
			average sql.NullFloat64
		)
		err = rows.Scan(&point.RunId, &point.Term, &unix, &average, &point.VeryBad, &point.Insufficient)
		if err != nil {
			return nil, err
		}
		point.Time = time.Unix(unix, 0)
		if average.Valid {
			value := average.Float64
			point.Average = &value
		}
		points = append(points, point)
	}
	return points, rows.Err()
}
