package classeviva

import (
	"strings"

	"dario.cat/mergo"
)

// Endpoints are the paths of the remote pages, relative to Options.BaseUrl.
// `{class}` and `{term}` placeholders are substituted per request.
type Endpoints struct {
	LoginPage     string `json:"login_page"`
	Auth          string `json:"auth"`
	LoginRedirect string `json:"login_redirect"`
	// AppBase is what relative links found on app pages resolve against.
	AppBase       string `json:"app_base"`
	Subjects      string `json:"subjects"`
	Classes       string `json:"classes"`
	ClassRoster   string `json:"class_roster"`
	AverageGrades string `json:"average_grades"`
	Agenda        string `json:"agenda"`
}

// Markup holds the marker phrases, selectors and path fragments the
// extractors rely on. They are the versioned contract with the remote HTML.
type Markup struct {
	SubjectsMarker       string `json:"subjects_marker"`
	SubjectRows          string `json:"subject_rows"`
	ClassesMarker        string `json:"classes_marker"`
	ClassCodeParam       string `json:"class_code_param"`
	StudentCell          string `json:"student_cell"`
	TermLinkAttr         string `json:"term_link_attr"`
	CompetenceOnly       string `json:"competence_only"`
	RosterPage           string `json:"roster_page"`
	GradesPage           string `json:"grades_page"`
	TestsPage            string `json:"tests_page"`
	TestsTable           string `json:"tests_table"`
	AverageTables        string `json:"average_tables"`
	AverageSubjectHeader string `json:"average_subject_header"`
}

type Options struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`

	UserAgent         string  `json:"user_agent"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	// 0 leaves the transport default in place.
	TimeoutSeconds   int  `json:"timeout_seconds"`
	CloudflareBypass bool `json:"cloudflare_bypass"`
	// DumpDir saves every fetched page there when set.
	DumpDir string `json:"dump_dir"`

	Endpoints Endpoints `json:"endpoints"`
	Markup    Markup    `json:"markup"`
}

func DefaultOptions() Options {
	return Options{
		BaseUrl:           "https://web.spaggiari.eu",
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		RequestsPerSecond: 2,
		Endpoints: Endpoints{
			LoginPage:     "/home/app/default/login.php?target=cvv&mode=",
			Auth:          "/auth-p7/app/default/AuthApi4.php?a=aLoginPwd",
			LoginRedirect: "/home/app/default/login_ok_redirect.php",
			AppBase:       "/cvv/app/default/",
			Subjects:      "/cvv/app/default/gioprof_selezione.php",
			Classes:       "/cvv/app/default/coordinatore_selezione.php",
			ClassRoster:   "/cvv/app/default/regclasse.php?classe_id={class}",
			AverageGrades: "/cvv/app/default/sc_medie.php?classe_id={class}&periodo={term}",
			Agenda:        "/cvv/app/default/agenda.php?ope=get_events&mode=agenda&tutte_note=0&aula_id=undefined",
		},
		Markup: Markup{
			SubjectsMarker:       "Giornale del professore",
			SubjectRows:          "tr[valign=top]",
			ClassesMarker:        "Classi coordinate",
			ClassCodeParam:       "classe_id",
			StudentCell:          "td.elenco_studenti",
			TermLinkAttr:         "_href",
			CompetenceOnly:       "comp=",
			RosterPage:           "/regclasse.php",
			GradesPage:           "/regvoti.php",
			TestsPage:            "/recuperi_docente.php",
			TestsTable:           "div.main-container table",
			AverageTables:        "table",
			AverageSubjectHeader: "th.materia",
		},
	}
}

// withDefaults fills every zero field with the value from DefaultOptions.
func (o Options) withDefaults() (Options, error) {
	err := mergo.Merge(&o, DefaultOptions())
	return o, err
}

// expand substitutes the `{class}` and `{term}` placeholders of an endpoint.
func expand(endpoint, class, term string) string {
	return strings.NewReplacer("{class}", class, "{term}", term).Replace(endpoint)
}
