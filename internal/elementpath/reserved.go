package elementpath

import "strings"

// reservedNames may not be used, in any letter case, as an element name.
// Widening this set is a breaking schema-compatibility change.
var reservedNames = map[string]struct{}{
	// template substitution
	"calculates": {},

	// instance metadata
	"savepoint_timestamp": {},
	"savepoint_type":      {},
	"form_id":             {},
	"locale":              {},

	// SQLite keywords
	"abort":             {},
	"action":            {},
	"add":               {},
	"after":             {},
	"all":               {},
	"alter":             {},
	"analyze":           {},
	"and":               {},
	"as":                {},
	"asc":               {},
	"attach":            {},
	"autoincrement":     {},
	"before":            {},
	"begin":             {},
	"between":           {},
	"by":                {},
	"cascade":           {},
	"case":              {},
	"cast":              {},
	"check":             {},
	"collate":           {},
	"column":            {},
	"commit":            {},
	"conflict":          {},
	"constraint":        {},
	"create":            {},
	"cross":             {},
	"current_date":      {},
	"current_time":      {},
	"current_timestamp": {},
	"database":          {},
	"default":           {},
	"deferrable":        {},
	"deferred":          {},
	"delete":            {},
	"desc":              {},
	"detach":            {},
	"distinct":          {},
	"drop":              {},
	"each":              {},
	"else":              {},
	"end":               {},
	"escape":            {},
	"except":            {},
	"exclusive":         {},
	"exists":            {},
	"explain":           {},
	"fail":              {},
	"for":               {},
	"foreign":           {},
	"from":              {},
	"full":              {},
	"glob":              {},
	"group":             {},
	"having":            {},
	"if":                {},
	"ignore":            {},
	"immediate":         {},
	"in":                {},
	"index":             {},
	"indexed":           {},
	"initially":         {},
	"inner":             {},
	"insert":            {},
	"instead":           {},
	"intersect":         {},
	"into":              {},
	"is":                {},
	"isnull":            {},
	"join":              {},
	"key":               {},
	"left":              {},
	"like":              {},
	"limit":             {},
	"match":             {},
	"natural":           {},
	"no":                {},
	"not":               {},
	"notnull":           {},
	"null":              {},
	"of":                {},
	"offset":            {},
	"on":                {},
	"or":                {},
	"order":             {},
	"outer":             {},
	"plan":              {},
	"pragma":            {},
	"primary":           {},
	"query":             {},
	"raise":             {},
	"references":        {},
	"regexp":            {},
	"reindex":           {},
	"release":           {},
	"rename":            {},
	"replace":           {},
	"restrict":          {},
	"right":             {},
	"rollback":          {},
	"row":               {},
	"savepoint":         {},
	"select":            {},
	"set":               {},
	"table":             {},
	"temp":              {},
	"temporary":         {},
	"then":              {},
	"to":                {},
	"transaction":       {},
	"trigger":           {},
	"union":             {},
	"unique":            {},
	"update":            {},
	"using":             {},
	"vacuum":            {},
	"values":            {},
	"view":              {},
	"virtual":           {},
	"when":              {},
	"where":             {},
}

// IsReserved reports whether name matches a reserved name, ignoring case.
func IsReserved(name string) bool {
	_, ok := reservedNames[strings.ToLower(name)]
	return ok
}
