package classeviva

import "strings"

type aliasRule struct {
	contains string
	alias    string
}

// subjectAliases are checked in order against the upper-cased subject name,
// the first rule whose fragment is contained wins. Every alias must map to
// itself (or to nothing) so that aliasing stays idempotent.
var subjectAliases = []aliasRule{
	{contains: "RELIGIONE", alias: "RELIGIONE"},
	{contains: "ALTERNATIVA", alias: "ALTERNATIVA"},
	{contains: "COMPORTAMENTO", alias: "CONDOTTA"},
	{contains: "EDUCAZIONE CIVICA", alias: "ED. CIVICA"},
	{contains: "ITALIANA", alias: "ITALIANO"},
	{contains: "INGLESE", alias: "INGLESE"},
	{contains: "FRANCESE", alias: "FRANCESE"},
	{contains: "SPAGNOL", alias: "SPAGNOLO"},
	{contains: "TEDESC", alias: "TEDESCO"},
	{contains: "STORIA DELL", alias: "ARTE"},
	{contains: "STORIA", alias: "STORIA"},
	{contains: "GEOGRAFIA", alias: "GEOGRAFIA"},
	{contains: "DIRITTO", alias: "DIRITTO"},
	{contains: "ECONOMIA AZIENDALE", alias: "EC. AZIENDALE"},
	{contains: "COMPLEMENTI DI MATEMATICA", alias: "COMPL. MAT."},
	{contains: "MATEMATICA", alias: "MATEMATICA"},
	{contains: "SCIENZE MOTORIE", alias: "SC. MOTORIE"},
	{contains: "EDUCAZIONE FISICA", alias: "SC. MOTORIE"},
	{contains: "FISICA", alias: "FISICA"},
	{contains: "CHIMICA", alias: "CHIMICA"},
	{contains: "SCIENZE INTEGRATE", alias: "SCIENZE"},
	{contains: "SCIENZE DELLA TERRA", alias: "SCIENZE"},
	{contains: "RAPPRESENTAZIONE GRAFICA", alias: "TTRG"},
	{contains: "TECNOLOGIE INFORMATICHE", alias: "TEC. INF."},
	{contains: "TECNOLOGIE E PROGETTAZIONE", alias: "TPSIT"},
	{contains: "GESTIONE PROGETTO", alias: "GPOI"},
	{contains: "SISTEMI E RETI", alias: "SISTEMI"},
	{contains: "TELECOMUNICAZIONI", alias: "TELECOM."},
	{contains: "INFORMATICA", alias: "INFORMATICA"},
}

// SubjectAlias maps long or variant subject names to a fixed short display
// name, names matching no rule are returned unchanged.
func SubjectAlias(subject string) string {
	upper := strings.ToUpper(subject)
	for _, rule := range subjectAliases {
		if strings.Contains(upper, rule.contains) {
			return rule.alias
		}
	}
	return subject
}
