package repo

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ansel1/merry"
)

var (
	ErrNotFound = merry.New("not found").WithHTTPCode(http.StatusNotFound)
	ErrInvalid  = merry.New("invalid record").WithHTTPCode(http.StatusBadRequest)
)

type ProjectStatus string

const (
	StatusActive     ProjectStatus = "active"
	StatusInProgress ProjectStatus = "in_progress"
	StatusComplete   ProjectStatus = "complete"
)

type AnalysisKind string

const (
	KindStructural AnalysisKind = "structural"
	KindExcel      AnalysisKind = "excel"
)

type Project struct {
	ID        string        `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	Location  string        `json:"location" db:"location"`
	Client    string        `json:"client" db:"client"`
	Type      string        `json:"type" db:"type"`
	AreaM2    float64       `json:"area_m2" db:"area_m2"`
	Value     float64       `json:"value" db:"value"`
	Status    ProjectStatus `json:"status" db:"status"`
	Progress  int           `json:"progress" db:"progress"`
	StartDate string        `json:"start_date" db:"start_date"`
	Created   time.Time     `json:"created" db:"created_at"`
}

type Analysis struct {
	ID        string          `json:"id"`
	Kind      AnalysisKind    `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type Settings struct {
	Language string `json:"language" db:"language"`
	Region   string `json:"region" db:"region"`
	Currency string `json:"currency" db:"currency"`
	Theme    string `json:"theme" db:"theme"`
}

var DefaultSettings = Settings{Language: "ar", Region: "riyadh", Currency: "sar", Theme: "light"}

type Stats struct {
	TotalProjects  int                   `json:"total_projects"`
	ActiveProjects int                   `json:"active_projects"`
	TotalAnalyses  int                   `json:"total_analyses"`
	TotalValue     float64               `json:"total_value"`
	AvgProgress    float64               `json:"avg_progress"`
	ByStatus       map[ProjectStatus]int `json:"by_status"`
}

// Snapshot is the backup format of a whole store.
type Snapshot struct {
	Projects []Project  `json:"projects"`
	Analyses []Analysis `json:"analyses"`
	Settings Settings   `json:"settings"`
}

// Repository is the record store of one dashboard session.
type Repository interface {
	CreateProject(ctx context.Context, p Project) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id string) (Project, error)

	SaveAnalysis(ctx context.Context, kind AnalysisKind, payload interface{}) (Analysis, error)
	ListAnalyses(ctx context.Context) ([]Analysis, error)
	GetAnalysis(ctx context.Context, id string) (Analysis, error)

	Settings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, s Settings) (Settings, error)

	Stats(ctx context.Context) (Stats, error)
	Export(ctx context.Context) (Snapshot, error)
	Import(ctx context.Context, s Snapshot) error
	Close() error
}

// prepareProject validates a new project and fills the defaults.
func prepareProject(p Project, id string, now time.Time) (Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Project{}, merry.Here(ErrInvalid).Append("project name required")
	}
	if p.Progress < 0 || p.Progress > 100 {
		return Project{}, merry.Here(ErrInvalid).Appendf("progress %d outside 0..100", p.Progress)
	}
	if p.AreaM2 < 0 || p.Value < 0 {
		return Project{}, merry.Here(ErrInvalid).Append("area and value must not be negative")
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if !p.Status.Valid() {
		return Project{}, merry.Here(ErrInvalid).Appendf("unknown status %q", p.Status)
	}
	p.ID = id
	p.Created = now.UTC()
	return p, nil
}

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInProgress, StatusComplete:
		return true
	}
	return false
}

func prepareSettings(s Settings) Settings {
	if s.Language == "" {
		s.Language = DefaultSettings.Language
	}
	if s.Region == "" {
		s.Region = DefaultSettings.Region
	}
	if s.Currency == "" {
		s.Currency = DefaultSettings.Currency
	}
	if s.Theme == "" {
		s.Theme = DefaultSettings.Theme
	}
	return s
}

func encodePayload(payload interface{}) (json.RawMessage, error) {
	if raw, ok := payload.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return nil, merry.Here(ErrInvalid).Append("payload is not valid JSON")
		}
		return raw, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, merry.Prepend(err, "encode analysis payload")
	}
	return b, nil
}

func computeStats(projects []Project, analyses int) Stats {
	st := Stats{TotalProjects: len(projects), TotalAnalyses: analyses, ByStatus: map[ProjectStatus]int{}}
	progress := 0
	for _, p := range projects {
		st.ByStatus[p.Status]++
		if p.Status == StatusActive {
			st.ActiveProjects++
		}
		st.TotalValue += p.Value
		progress += p.Progress
	}
	if len(projects) > 0 {
		st.AvgProgress = float64(progress) / float64(len(projects))
	}
	return st
}

func validateSnapshot(s Snapshot) error {
	seen := map[string]bool{}
	for _, p := range s.Projects {
		if p.ID == "" || seen[p.ID] {
			return merry.Here(ErrInvalid).Appendf("project id %q missing or duplicated", p.ID)
		}
		seen[p.ID] = true
	}
	seen = map[string]bool{}
	for _, a := range s.Analyses {
		if a.ID == "" || seen[a.ID] {
			return merry.Here(ErrInvalid).Appendf("analysis id %q missing or duplicated", a.ID)
		}
		if !json.Valid(a.Payload) {
			return merry.Here(ErrInvalid).Appendf("analysis %s: payload is not valid JSON", a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}
