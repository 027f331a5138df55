package telemetry

import (
	"strings"
	"sync"
)

type Report struct {
	Level  string
	Id     string
	Params []any
}

// Recorder keeps every report in memory so tests can assert on what a
// component reported.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
}

func (r *Recorder) add(level, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Level: level, Id: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add("broken", id, params)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add("warning", id, params)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add("debug", msg, params)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add("count", id, []any{count})
}

// Reports returns the reports of a level whose id contains the given
// substring, an empty substring matches every id.
func (r *Recorder) Reports(level, idContains string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, report := range r.reports {
		if report.Level == level && strings.Contains(report.Id, idContains) {
			out = append(out, report)
		}
	}
	return out
}
